package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/logger"
)

// RequestTimeout sets a per-request context deadline. The handler is not
// forcibly killed; downstream code must honor ctx.Done(). Autosave edits are
// unaffected since the debounced save runs on the session's base context,
// not the request's.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// A handler that ran out of time without writing gets a 504;
		// a partially written response cannot be replaced.
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			logger.WithComponent("http").Warnf("request timed out after %v: %s %s", d, c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "request timed out",
			})
			return
		}
	}
}
