package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics. The service and governor packages register the calculation
// metrics on the same default registry, so /metrics exposes both.
var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "megacalc_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "megacalc_requests_total",
		Help: "Total number of requests received",
	}, []string{"route", "code"})
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "megacalc_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})
)

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	s.metricsHandler.ServeHTTP(w, r)
}

// metricsMiddleware tracks in-flight requests and counts responses by route
// and status code. Rate-limited requests never reach it.
func (s *Server) metricsMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		totalRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
