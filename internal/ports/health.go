package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateChecker rejects a second checker under a name already taken.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is a dependency that /-/ready probes. Both generator
// adapters implement it with a model metadata lookup.
type HealthChecker interface {
	// Name labels the check in readiness output and must be unique.
	Name() string

	// Check returns nil when the dependency can serve. It must give up
	// when ctx is done.
	Check(ctx context.Context) error
}

// HealthRegistry collects checkers at startup and runs them on demand.
type HealthRegistry interface {
	Register(checker HealthChecker) error
	CheckAll(ctx context.Context) *HealthResult
}

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is unhealthy as soon as one check is.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is one checker's outcome. Message holds the error text.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DefaultHealthRegistry is safe for concurrent use.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	timeout  time.Duration
}

type RegistryOption func(*DefaultHealthRegistry)

// WithCheckTimeout gives every check its own deadline of d.
func WithCheckTimeout(d time.Duration) RegistryOption {
	return func(r *DefaultHealthRegistry) { r.timeout = d }
}

func NewHealthRegistry(opts ...RegistryOption) *DefaultHealthRegistry {
	r := &DefaultHealthRegistry{checkers: make(map[string]HealthChecker)}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if _, taken := r.checkers[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}
	r.checkers[name] = checker

	return nil
}

// CheckAll runs every checker in parallel and waits for all of them; one
// failure does not cut the others short.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	results := make([]*CheckResult, len(r.checkers))
	checkers := make([]HealthChecker, 0, len(r.checkers))
	for name, c := range r.checkers {
		names = append(names, name)
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = r.probe(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(names)),
		Timestamp: time.Now(),
	}
	for i, name := range names {
		out.Checks[name] = results[i]
		if results[i].Status == HealthStatusUnhealthy {
			out.Status = HealthStatusUnhealthy
		}
	}

	return out
}

func (r *DefaultHealthRegistry) probe(ctx context.Context, c HealthChecker) *CheckResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.Check(ctx)
	res := &CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}
	if err != nil {
		res.Status, res.Message = HealthStatusUnhealthy, err.Error()
	}

	return res
}
