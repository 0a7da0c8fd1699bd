package middleware

import (
	"net/http"
	"time"

	"auditorium/internal/service"
	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDKey = "request_id"

// GinZapLogger writes one access log line per request. The query string is
// left out because OTPs and cursors travel in it.
func GinZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.String(RequestIDKey, c.GetString(RequestIDKey)),
			zap.String("trace_id", c.GetString(TraceIDKey)),
			zap.Duration("latency", time.Since(start)),
		}
		if op := service.GetOperatorInfo(c.Request.Context()); op != nil {
			fields = append(fields, zap.String("user_id", op.UserID))
		}
		if code := c.GetString(errorCodeKey); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http_request", fields...)
		case status == http.StatusTooManyRequests:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

func GinZapRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("route", c.FullPath()),
					zap.String(RequestIDKey, c.GetString(RequestIDKey)),
					zap.Stack("stack"),
				)
				AbortWithError(c, http.StatusInternalServerError, constraints.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}

// RequestID keeps a caller supplied X-Request-ID when it looks sane and
// mints one otherwise.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := headerID(c, "X-Request-ID")
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// headerID returns the header value if it is a short printable token.
func headerID(c *gin.Context, name string) string {
	v := c.GetHeader(name)
	if v == "" || len(v) > 64 {
		return uuid.NewString()
	}
	for _, r := range v {
		if r <= ' ' || r > '~' {
			return uuid.NewString()
		}
	}
	return v
}
