package middleware

import (
	"net/http"
	"strings"

	"auditorium/internal/service"
	"auditorium/pkg/constraints"

	"github.com/gin-gonic/gin"
)

type TokenParser interface {
	ParseAccessToken(token string) (*service.OperatorInfo, error)
}

// JWTMiddleware distinguishes a missing bearer token (NO_BEARER_TOKEN) from
// a bad or expired one (INVALID_ACCESS_TOKEN). Clients refresh only on the
// latter.
func JWTMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, http.StatusUnauthorized, constraints.CodeNoBearerToken, "authorization header missing")
			return
		}

		op, err := parser.ParseAccessToken(tokenString)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, constraints.CodeInvalidAccessToken, "invalid access token")
			return
		}

		ctx := service.WithOperator(c.Request.Context(), op)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// RequireRole rejects operators without one of roles. Must run after
// JWTMiddleware.
func RequireRole(roles ...constraints.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := service.GetOperatorInfo(c.Request.Context())
		if !op.Is(roles...) {
			AbortWithError(c, http.StatusForbidden, constraints.CodeForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}
