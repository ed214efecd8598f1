// Package metrics exposes Prometheus instruments for the storefront HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/louisbranch/paidportfolio/internal/platform/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// ServerMetrics holds the request and notification instruments for one server.
type ServerMetrics struct {
	registry   *prometheus.Registry
	Requests   *prometheus.CounterVec
	LatencyMS  *prometheus.HistogramVec
	EmailSends *prometheus.CounterVec
}

// NewServerMetrics registers instruments on a fresh registry so several servers
// can coexist in one process (tests).
func NewServerMetrics() *ServerMetrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "email_sends_total",
		Help:      "Email send attempts by recipient role and outcome.",
	}, []string{"role", "outcome"})

	registry.MustRegister(requests, latency, emails)
	return &ServerMetrics{
		registry:   registry,
		Requests:   requests,
		LatencyMS:  latency,
		EmailSends: emails,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records one request count and latency sample per request. The
// route label is the matched ServeMux pattern, so path ids do not explode the
// label set.
func (m *ServerMetrics) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := httpx.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(rec.Status())).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

// ObserveEmail counts one email send outcome for role ("operator" or "submitter").
func (m *ServerMetrics) ObserveEmail(role string, delivered bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if delivered {
		outcome = "accepted"
	}
	m.EmailSends.WithLabelValues(role, outcome).Inc()
}
