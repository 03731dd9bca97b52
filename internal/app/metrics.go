package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transformationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_transformations_total",
			Help: "Quote transformations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	transformationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_transformation_duration_seconds",
			Help:    "Duration of quote transformations in seconds, including the generator call",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

// ObserveOutcome records an executor outcome in Prometheus.
// Validation failures are counted but never timed.
func ObserveOutcome(o Outcome) {
	outcome := "success"
	if o.Step != "" {
		outcome = string(o.Step) + "_error"
	}

	transformationsTotal.WithLabelValues(o.Operation, outcome).Inc()

	if o.Step != StepValidate {
		transformationDuration.WithLabelValues(o.Operation).Observe(o.Duration.Seconds())
	}
}
