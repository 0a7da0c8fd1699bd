package middleware

import (
	"github.com/gin-gonic/gin"
)

// TraceMiddleware propagates X-Trace-ID so a client can quote the id from
// an error payload and find the matching server log line.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := headerID(c, "X-Trace-ID")
		c.Set(TraceIDKey, traceID)
		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Next()
	}
}
