package middleware

import (
	v1 "auditorium/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

// TraceIDKey is the gin context key TraceMiddleware stores the trace id under.
const TraceIDKey = "TraceID"

// errorCodeKey carries the payload code to the access log.
const errorCodeKey = "error_code"

// ErrorBody builds the API error payload, stamped with the request trace id.
func ErrorBody(c *gin.Context, code, message string, detail any) v1.ErrorResponse {
	c.Set(errorCodeKey, code)
	body := v1.ErrorResponse{Message: &message, ErrorCode: &code, Detail: detail}
	if traceID := c.GetString(TraceIDKey); traceID != "" {
		body.TraceID = &traceID
	}
	return body
}

func AbortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody(c, code, message, nil))
}
