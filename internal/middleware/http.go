package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unmatched paths share one label so probes cannot blow up cardinality.
const unmatchedRoute = "unmatched"

var (
	httpDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "auditorium_http_duration_seconds",
			Help:       "Duration of dev server HTTP requests.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"route", "method", "status"},
	)
	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auditorium_http_in_flight_requests",
		Help: "Requests currently being served.",
	})
)

func HttpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		httpDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
