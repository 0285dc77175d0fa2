// Package metrics exposes Prometheus metrics for the HTTP server and the
// sitemap/redirect workflow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redirectmap"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	sitemapLoads    prometheus.Counter
	slugsExtracted  prometheus.Counter
	redirectLoads   prometheus.Counter
	redirectRecords prometheus.Counter
	failures        *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sitemapLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sitemap_loads_total",
			Help:      "Sitemaps parsed successfully.",
		}),
		slugsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slugs_extracted_total",
			Help:      "Slugs extracted across all sitemap loads.",
		}),
		redirectLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_loads_total",
			Help:      "Redirect CSVs reconciled successfully.",
		}),
		redirectRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_records_total",
			Help:      "Redirect records built across all CSV loads.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed workspace operations by operation and error code.",
		}, []string{"op", "code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_blocks_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"limit"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sitemapLoads,
		m.slugsExtracted,
		m.redirectLoads,
		m.redirectRecords,
		m.failures,
		m.rateLimited,
		m.requestDuration,
	)
	return m
}

// SitemapLoaded implements core.Observer.
func (m *Metrics) SitemapLoaded(slugs int) {
	m.sitemapLoads.Inc()
	m.slugsExtracted.Add(float64(slugs))
}

// RedirectsLoaded implements core.Observer.
func (m *Metrics) RedirectsLoaded(records int) {
	m.redirectLoads.Inc()
	m.redirectRecords.Add(float64(records))
}

// OperationFailed implements core.Observer.
func (m *Metrics) OperationFailed(op, code string) {
	m.failures.WithLabelValues(op, code).Inc()
}

// RateLimited counts a request rejected by the named limit.
func (m *Metrics) RateLimited(limit string) {
	m.rateLimited.WithLabelValues(limit).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency labelled by chi route pattern, so
// /api/workspaces/{id} is one series regardless of ID.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
