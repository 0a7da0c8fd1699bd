package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]*service.OperatorInfo

func (p stubParser) ParseAccessToken(token string) (*service.OperatorInfo, error) {
	if op, ok := p[token]; ok {
		return op, nil
	}
	return nil, errors.New("bad token")
}

func newJWTRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	parser := stubParser{
		"user-token":  {UserID: "u1", Name: "Ada", Role: constraints.RoleUser},
		"admin-token": {UserID: "a1", Name: "Root", Role: constraints.RoleAdmin},
	}
	r := gin.New()
	r.Use(TraceMiddleware())
	authed := r.Group("/", JWTMiddleware(parser))
	authed.GET("/me", func(c *gin.Context) {
		op := service.GetOperatorInfo(c.Request.Context())
		c.String(http.StatusOK, op.UserID)
	})
	authed.GET("/admin", RequireRole(constraints.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := newJWTRouter()

	tests := []struct {
		name   string
		path   string
		header string
		status int
		code   string
	}{
		{name: "missing header", path: "/me", status: http.StatusUnauthorized, code: constraints.CodeNoBearerToken},
		{name: "wrong scheme", path: "/me", header: "Basic user-token", status: http.StatusUnauthorized, code: constraints.CodeNoBearerToken},
		{name: "unknown token", path: "/me", header: "Bearer nope", status: http.StatusUnauthorized, code: constraints.CodeInvalidAccessToken},
		{name: "valid token", path: "/me", header: "Bearer user-token", status: http.StatusOK},
		{name: "role denied", path: "/admin", header: "Bearer user-token", status: http.StatusForbidden, code: constraints.CodeForbidden},
		{name: "role granted", path: "/admin", header: "Bearer admin-token", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", tt.path, nil)
			req.Header.Set("X-Trace-ID", "trace-1")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.code == "" {
				return
			}
			var body v1.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code())
			require.NotNil(t, body.TraceID)
			assert.Equal(t, "trace-1", *body.TraceID)
		})
	}
}

func TestGinZapRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinZapRecovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), constraints.CodeInternal)
}

func TestCorsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorsMiddleware([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
