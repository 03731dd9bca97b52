// Package domain holds the quote transformation and the two ways it can
// fail: the caller sent unusable input (ErrValidation) or the text
// generator did not produce a result (ErrUnavailable). Adapters decide how
// each kind is presented.
package domain

import (
	"errors"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("generator unavailable")
)

// ValidationError is a rejected input. Message is safe to show callers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}

	return "invalid " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError rejects field with message. Field may be empty when
// the rule spans several fields.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UnavailableError is a failed generator call. Reason and Cause are for
// logs; callers only ever see a fixed message.
type UnavailableError struct {
	Service string
	Reason  string
	Cause   error
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	b.WriteString(" unavailable")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	return b.String()
}

// Unwrap exposes ErrUnavailable and, when present, Cause.
func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}

	return []error{ErrUnavailable, e.Cause}
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// WrapUnavailable attributes cause to service. The cause text becomes the
// reason.
func WrapUnavailable(service string, cause error) error {
	e := &UnavailableError{Service: service, Cause: cause}
	if cause != nil {
		e.Reason = cause.Error()
	}

	return e
}

func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
