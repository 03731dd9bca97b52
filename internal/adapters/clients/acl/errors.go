package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-translator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-translator/internal/domain"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrNoCandidates is returned when a generation response carries no text.
var ErrNoCandidates = errors.New("response contained no candidate text")

// ErrorResponse is the error envelope used by Google APIs.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of a Google API error.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError is a non-2xx answer from the generator API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d", e.StatusCode)
	if e.Status != "" {
		msg += " " + e.Status
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	return msg
}

// ParseErrorResponse decodes a Google error body.
// Returns nil if the body is empty or cannot be parsed.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.Error.Message == "" && errResp.Error.Status == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError turns a failed call into a domain unavailable error.
// resp may be nil when clientErr is set.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: defaultMessageForStatus(resp.StatusCode)}
	if errResp := ParseErrorResponse(resp.Body); errResp != nil {
		apiErr.Status = errResp.Error.Status
		if errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
		}
	}

	return domain.WrapUnavailable(serviceName, fmt.Errorf("%s: %w", operation, apiErr))
}

func mapClientError(err error, serviceName, operation string) error {
	if errors.Is(err, clients.ErrCircuitOpen) {
		return domain.WrapUnavailable(serviceName,
			fmt.Errorf("circuit breaker open during %s: %w", operation, err))
	}

	return domain.WrapUnavailable(serviceName, fmt.Errorf("%s: %w", operation, err))
}

func defaultMessageForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "credentials rejected"
	case http.StatusNotFound:
		return "model not found"
	case http.StatusTooManyRequests:
		return "quota exhausted"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return http.StatusText(status)
	}
}
