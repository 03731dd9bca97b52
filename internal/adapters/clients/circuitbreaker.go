package clients

import (
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/jsamuelsen/quote-translator/internal/platform/config"
)

// State is the position of a circuit breaker.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// StateListener observes breaker transitions. It runs while the breaker is
// locked and must not call back into it.
type StateListener func(from, to State)

// CircuitBreaker guards the generator API against repeated failing calls.
//
//   - closed to open after MaxFailures consecutive failures
//   - open to half-open once Timeout has passed
//   - half-open to closed after HalfOpenLimit consecutive successes
//   - half-open to open on any failure
type CircuitBreaker struct {
	cb *gobreaker.TwoStepCircuitBreaker[any]
}

// NewCircuitBreaker returns a closed breaker. onChange may be nil.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, onChange StateListener) *CircuitBreaker {
	trip := uint32(max(cfg.MaxFailures, 1))      //nolint:gosec // validated to >= 1
	probes := uint32(max(cfg.HalfOpenLimit, 1)) //nolint:gosec // validated to >= 1

	return &CircuitBreaker{cb: gobreaker.NewTwoStepCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: probes,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trip
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if onChange != nil {
				onChange(from, to)
			}
		},
	})}
}

// Allow admits a call or returns an error wrapping ErrCircuitOpen. The
// admission must be settled exactly once.
func (b *CircuitBreaker) Allow() (Admission, error) {
	done, err := b.cb.Allow()
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	return Admission{done: done, breaker: b}, nil
}

// State returns the current state.
func (b *CircuitBreaker) State() State {
	return b.cb.State()
}

// Admission is one call let through by a breaker. The zero value belongs to
// no breaker and settles nothing.
type Admission struct {
	done    func(success bool)
	breaker *CircuitBreaker
}

// Succeeded records a call the downstream answered healthily.
func (a Admission) Succeeded() {
	if a.done != nil {
		a.done(true)
	}
}

// Failed records a call the downstream failed.
func (a Admission) Failed() {
	if a.done != nil {
		a.done(false)
	}
}

// Abandoned settles a call the caller gave up on. Outside half-open it is
// not counted at all. A half-open probe is recorded as failed so its slot is
// released and the cool-down starts again.
func (a Admission) Abandoned() {
	if a.done != nil && a.breaker.State() == StateHalfOpen {
		a.done(false)
	}
}
