package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHttpMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HttpMiddleware())
	r.GET("/conferences/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/conferences/a", "/conferences/b", "/nowhere"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(w, req)
	}

	before := testutil.CollectAndCount(httpDuration)
	assert.GreaterOrEqual(t, before, 2)

	// Both ids collapse into the route pattern.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/conferences/c", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, before, testutil.CollectAndCount(httpDuration))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}

func TestRequestAndTraceIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), TraceMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name    string
		traceID string
		keep    bool
	}{
		{name: "caller id kept", traceID: "trace-abc", keep: true},
		{name: "missing id minted"},
		{name: "unprintable id replaced", traceID: "bad id\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/x", nil)
			if tt.traceID != "" {
				req.Header.Set("X-Trace-ID", tt.traceID)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Trace-ID")
			assert.NotEmpty(t, got)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.keep {
				assert.Equal(t, tt.traceID, got)
			} else {
				assert.NotEqual(t, tt.traceID, got)
			}
		})
	}
}
