package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Use cases run as Validate → Perform → Verify. Nothing is persisted, so
// there is no archive step: a verified result is returned as is.

// ExecutionStep names the stage an operation failed in.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
)

// ExecutionError wraps errors with the step where they occurred.
// The cause stays reachable so domain error kinds survive the wrapping.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation holds the stages of a use case. Nil stages are skipped; a nil
// Verify passes the performed value through unchanged.
type Operation[I, O any] struct {
	Name     string
	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (O, error)
	Verify   func(ctx context.Context, input I, performed O) (O, error)
}

// Outcome is reported once per Execute call.
type Outcome struct {
	Operation string
	Step      ExecutionStep // empty on success
	Duration  time.Duration
}

// Executor runs operations and reports their outcome.
type Executor struct {
	logger  *slog.Logger
	observe func(Outcome)
}

// NewExecutor creates an executor. observe may be nil.
func NewExecutor(logger *slog.Logger, observe func(Outcome)) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	if observe == nil {
		observe = func(Outcome) {}
	}

	return &Executor{logger: logger, observe: observe}
}

// Execute runs op against input, stopping at the first failing step.
func Execute[I, O any](ctx context.Context, exec *Executor, op Operation[I, O], input I) (O, error) {
	var zero O

	logger := exec.logger.With(slog.String("operation", op.Name))

	start := time.Now()
	fail := func(step ExecutionStep, err error) (O, error) {
		exec.observe(Outcome{Operation: op.Name, Step: step, Duration: time.Since(start)})
		return zero, &ExecutionError{Operation: op.Name, Step: step, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			logger.DebugContext(ctx, "validation failed", slog.Any("error", err))
			return fail(StepValidate, err)
		}
	}

	var performed O
	if op.Perform != nil {
		var err error
		performed, err = op.Perform(ctx, input)
		if err != nil {
			return fail(StepPerform, err)
		}
	}

	result := performed
	if op.Verify != nil {
		var err error
		result, err = op.Verify(ctx, input, performed)
		if err != nil {
			return fail(StepVerify, err)
		}
	}

	duration := time.Since(start)
	exec.observe(Outcome{Operation: op.Name, Duration: duration})
	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", duration))

	return result, nil
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
