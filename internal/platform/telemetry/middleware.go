package telemetry

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// TraceIDHeader returns the server span's trace ID to the caller.
const TraceIDHeader = "X-Trace-ID"

const meterName = "github.com/jsamuelsen/quote-translator/internal/platform/telemetry"

// Metrics are the inbound HTTP instruments, labelled by method and route.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewMetrics registers the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	duration, errD := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Inbound request latency"), metric.WithUnit("s"))
	total, errT := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Inbound requests served"))
	inFlight, errA := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Inbound requests in progress"))

	if err := errors.Join(errD, errT, errA); err != nil {
		return nil, err
	}

	return &Metrics{duration: duration, total: total, inFlight: inFlight}, nil
}

// Middleware is otelgin tracing followed by request metrics. Sampled
// requests get X-Trace-ID and a trace_id on the context logger.
func Middleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), metricsMiddleware()}
}

func metricsMiddleware() gin.HandlerFunc {
	m, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		exposeTraceID(c)

		if m == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		labels := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		}
		start := time.Now()

		m.inFlight.Add(ctx, 1, metric.WithAttributes(labels...))
		defer m.inFlight.Add(ctx, -1, metric.WithAttributes(labels...))

		c.Next()

		done := metric.WithAttributes(append(labels, attribute.Int("http.status_code", c.Writer.Status()))...)
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.total.Add(ctx, 1, done)
	}
}

// exposeTraceID runs before the handler writes its status line.
func exposeTraceID(c *gin.Context) {
	sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
	if !sc.HasTraceID() {
		return
	}

	id := sc.TraceID().String()
	c.Header(TraceIDHeader, id)
	c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), id))
}
