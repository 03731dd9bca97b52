package acl

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-translator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-translator/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestMapHTTPError_GoogleErrorBody(t *testing.T) {
	resp := response(http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)

	err := MapHTTPError(resp, nil, "gemini", "generate content")
	require.Error(t, err)

	assert.True(t, domain.IsUnavailable(err))
	assert.False(t, domain.IsValidation(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Status)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", apiErr.Message)
	assert.Contains(t, err.Error(), "generate content")
}

func TestMapHTTPError_DefaultMessages(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusUnauthorized, "credentials rejected"},
		{http.StatusForbidden, "credentials rejected"},
		{http.StatusNotFound, "model not found"},
		{http.StatusTooManyRequests, "quota exhausted"},
		{http.StatusServiceUnavailable, "service temporarily unavailable"},
		{http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := MapHTTPError(response(tt.status, ""), nil, "gemini", "generate content")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.True(t, domain.IsUnavailable(err))
		})
	}
}

func TestMapHTTPError_CircuitOpen(t *testing.T) {
	err := MapHTTPError(nil, clients.ErrCircuitOpen, "gemini", "generate content")

	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorIs(t, err, clients.ErrCircuitOpen)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestMapHTTPError_ClientError(t *testing.T) {
	cause := fmt.Errorf("%w: dial tcp: connection refused", clients.ErrRequestFailed)

	err := MapHTTPError(nil, cause, "gemini", "generate content")

	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorIs(t, err, clients.ErrRequestFailed)

	var unavailable *domain.UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "gemini", unavailable.Service)
}

func TestMapHTTPError_SuccessReturnsNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusOK, ""), nil, "gemini", "generate content"))
}

func TestMapHTTPError_NilResponse(t *testing.T) {
	err := MapHTTPError(nil, nil, "gemini", "generate content")

	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "no response received")
}

func TestParseErrorResponse(t *testing.T) {
	t.Run("google envelope", func(t *testing.T) {
		errResp := ParseErrorResponse(strings.NewReader(
			`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))

		require.NotNil(t, errResp)
		assert.Equal(t, 429, errResp.Error.Code)
		assert.Equal(t, "RESOURCE_EXHAUSTED", errResp.Error.Status)
	})

	t.Run("invalid json", func(t *testing.T) {
		assert.Nil(t, ParseErrorResponse(strings.NewReader("<html>")))
	})

	t.Run("empty object", func(t *testing.T) {
		assert.Nil(t, ParseErrorResponse(strings.NewReader(`{}`)))
	})

	t.Run("nil body", func(t *testing.T) {
		assert.Nil(t, ParseErrorResponse(nil))
	})
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 403, Status: "PERMISSION_DENIED", Message: "denied"}
	assert.Equal(t, "HTTP 403 PERMISSION_DENIED: denied", err.Error())

	assert.Equal(t, "HTTP 502", (&APIError{StatusCode: 502}).Error())
}
