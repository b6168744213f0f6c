package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the HTTP-level Prometheus metrics. Evaluation metrics are
// recorded by the tmm package.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tmm_http_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmm_http_requests_total",
		Help: "Total number of requests by route and status code",
	}, []string{"route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmm_http_request_duration_seconds",
		Help:    "Request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
	}
}

// WritePrometheus writes metrics in Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks active requests, counts and latency per route.
func (s *Server) metricsMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		totalRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
