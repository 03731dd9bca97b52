package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// Recovery turns a handler panic into a 500 with the flat error body and
// logs the value and stack at ERROR. If the handler already wrote, the
// response is left as is. Mount it first.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()
				logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
					slog.Any("error", r),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				if c.Writer.Written() {
					c.Abort()
				} else {
					c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.MessageInternalError))
				}
			}
		}()

		c.Next()
	}
}
