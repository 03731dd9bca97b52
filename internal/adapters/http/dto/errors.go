// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

// MessageTranslationFailed is the only body a caller sees for a failed
// transformation. The cause is logged, never returned.
const MessageTranslationFailed = "An error occurred during translation. Please try again."

// MessageInternalError is returned when a request fails outside the
// transformation path, such as a recovered panic.
const MessageInternalError = "An internal error occurred."

// ErrorResponse is the error envelope for all error responses.
// The trace ID travels in the X-Trace-ID header, not the body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse creates an error response carrying message.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}
