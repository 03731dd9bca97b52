package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// SimpleTimeout puts a deadline of d on the request context and writes
// nothing itself: the generator call fails on the expired context and the
// handler answers with the usual 500. Non-positive d turns it off.
func SimpleTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), d)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
