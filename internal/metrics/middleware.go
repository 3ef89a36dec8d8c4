package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP server metrics. Labelled by route pattern, not raw path, so
// /api/videos/{id} stays a single series regardless of the id.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videolib",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videolib",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds, by method, route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers the HTTP server metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	httpMetricsRegistered = true
}

// Middleware records a counter increment and a latency observation for
// every request that passes through it.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeLabel(r)
			code := strconv.Itoa(rec.status)

			HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, route, code).
				Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel resolves the chi route pattern for the request. Requests
// the router never matched (its own 404s) share a single "unrouted"
// series instead of fanning out one series per path.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unrouted"
}

// statusRecorder captures the status code written by the handler.
// It starts at 200 because handlers that only call Write never call
// WriteHeader themselves.
type statusRecorder struct {
	http.ResponseWriter
	status     int
	headerSent bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.headerSent {
		s.status = code
		s.headerSent = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.headerSent {
		s.headerSent = true
	}
	return s.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
