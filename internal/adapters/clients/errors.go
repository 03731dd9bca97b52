// Package clients provides the instrumented HTTP client used to reach the
// text-generation API.
package clients

import "errors"

// Transport-level failures. The generator adapters translate them into
// domain errors before they leave the adapter layer.
var (
	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed wraps the last transport error once every attempt is spent.
	ErrRequestFailed = errors.New("downstream request failed")
)
