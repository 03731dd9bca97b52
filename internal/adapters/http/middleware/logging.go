package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// Logging writes one "request completed" line per request, at INFO for
// success, WARN for 4xx and ERROR for 5xx. A TRACE line marks the start.
// Bodies are never logged, so quotes stay out of the logs.
//
// Probe traffic under /-/ is not logged, nor are the exact paths in skip.
func Logging(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(skip))
	for _, p := range skip {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if quiet[path] || strings.HasPrefix(path, "/-/") {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := logging.FromContext(ctx).With(
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		)
		logger.Log(ctx, logging.LevelTrace, "request started",
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		began := time.Now()
		c.Next()
		took := time.Since(began)

		status := c.Writer.Status()
		logger.Log(ctx, levelFor(status), "request completed",
			slog.Int("status", status),
			slog.Duration("latency", took),
			slog.Int64("latency_ms", took.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
