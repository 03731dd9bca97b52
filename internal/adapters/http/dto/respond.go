package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/domain"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// MapError maps an error to an HTTP status code and error response.
//
// Client input errors become 400 with the validation message. Everything
// else is a downstream failure and becomes 500 with a fixed message.
func MapError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	if IsInputError(err) {
		return http.StatusBadRequest, NewErrorResponse(domain.MessageQuoteAndStyleRequired)
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, NewErrorResponse(validationErr.Message)
	}

	return http.StatusInternalServerError, NewErrorResponse(MessageTranslationFailed)
}

// HandleError writes the mapped error response. 500s are logged at ERROR
// with the full cause; 400s at DEBUG.
func HandleError(c *gin.Context, err error) {
	status, errResp := MapError(err)

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
	} else {
		logger.DebugContext(ctx, "rejected request",
			slog.Any("error", err),
			slog.Any("fields", InvalidFields(err)),
		)
	}

	c.JSON(status, errResp)
}

// AbortWithError aborts the handler chain and writes the mapped response.
func AbortWithError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}
