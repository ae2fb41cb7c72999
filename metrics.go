package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "parcel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "http").
	Subsystem string

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// metrics holds the collectors updated by the Metrics middleware.
type metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	violations *prometheus.CounterVec
}

func newMetrics(cfg MetricsConfig) *metrics {
	factory := promauto.With(cfg.Registry)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds.",
			Buckets:   cfg.Buckets,
		}, []string{"method", "route"}),

		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "validation_violations_total",
			Help:      "Total number of constraint violations reported, by route.",
		}, []string{"method", "route"}),
	}
}

// Metrics returns middleware that records Prometheus metrics per request.
// Requests that match no route are recorded under the route "unmatched".
//
// Metrics collected (with the default namespace and subsystem):
//   - parcel_http_requests_total
//   - parcel_http_request_duration_seconds
//   - parcel_http_validation_violations_total
func Metrics(cfg MetricsConfig) Middleware {
	if cfg.Namespace == "" {
		cfg.Namespace = "parcel"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "http"
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	m := newMetrics(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			violations := 0
			if s := stateFrom(r.Context()); s != nil {
				if s.route != nil {
					route = s.route.Pattern
				}
				violations = s.violations
			}

			m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			if violations > 0 {
				m.violations.WithLabelValues(r.Method, route).Add(float64(violations))
			}
		})
	}
}

// MetricsHandler returns the exposition handler for the given gatherer, or
// for the default registry when g is nil.
func MetricsHandler(g prometheus.Gatherer) RawHandler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{}).ServeHTTP
}
