// Package middleware holds the gin middleware mounted in front of the quote
// routes.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// Inbound and echoed ID headers. The correlation ID spans a whole business
// transaction; the request ID names a single hop.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Callers may send IDs up to this length; anything longer is replaced.
const maxInboundIDLength = 128

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// RequestID accepts or mints X-Request-ID, echoes it and tags the context
// logger with request_id. Outbound clients forward it.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, ContextWithRequestID, logging.WithRequestID)
}

// CorrelationID does the same for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, ContextWithCorrelationID, logging.WithCorrelationID)
}

func propagateID(header string, attach ...func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" || len(id) > maxInboundIDLength {
			id = uuid.NewString()
		}

		c.Header(header, id)

		ctx := c.Request.Context()
		for _, fn := range attach {
			ctx = fn(ctx, id)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	return lookupID(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return lookupID(ctx, correlationIDKey)
}

// ContextWithRequestID returns a copy of ctx carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns a copy of ctx carrying id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func lookupID(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
