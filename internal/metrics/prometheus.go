package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	requests       *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	retries        prometheus.Counter
	sessionExpired prometheus.Counter
}

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditorium_client_requests_total",
		Help: "Outbound API requests by method and status class",
	}, []string{"method", "status"})
	refreshCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditorium_client_refresh_total",
		Help: "Token refresh calls by outcome",
	}, []string{"outcome"})
	retryCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auditorium_client_retries_total",
		Help: "Requests resubmitted after a successful refresh",
	})
	sessionExpiredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auditorium_client_session_expired_total",
		Help: "Sessions terminated by a failed refresh",
	})
)

func NewPrometheusObserver() ClientObserver {
	return &prometheusObserver{
		requests:       requestCounter,
		refreshes:      refreshCounter,
		retries:        retryCounter,
		sessionExpired: sessionExpiredCounter,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass folds a status code into "2xx".."5xx", or "error" when no
// response was received.
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func (p *prometheusObserver) ObserveRequest(method string, status int) {
	p.requests.WithLabelValues(method, StatusClass(status)).Inc()
}

func (p *prometheusObserver) RecordRefresh(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	p.refreshes.WithLabelValues(outcome).Inc()
}

func (p *prometheusObserver) RecordRetry() {
	p.retries.Inc()
}

func (p *prometheusObserver) RecordSessionExpired() {
	p.sessionExpired.Inc()
}
