// Package metrics exposes Prometheus counters for HTTP traffic and for the
// shopping flow (toggles, completions, connected shop-mode screens).
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shoplist"

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	completions    prometheus.Counter
	completedItems prometheus.Histogram
	toggles        *prometheus.CounterVec
}

// New registers all collectors. wsClients, when non-nil, is sampled on each
// scrape for the connected-clients gauge.
func New(wsClients func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_completions_total",
			Help:      "Shopping lists archived into history.",
		}),
		completedItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_completion_items",
			Help:      "Items per completed list.",
			Buckets:   []float64{0, 5, 10, 20, 40, 80},
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_state_changes_total",
			Help:      "Shop-mode item state changes by resulting state.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.completions, m.completedItems, m.toggles,
	)
	if wsClients != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live-sync clients.",
		}, func() float64 { return float64(wsClients()) }))
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCompletion records one archived list with n items.
func (m *Metrics) ObserveCompletion(n int) {
	if m == nil {
		return
	}
	m.completions.Inc()
	m.completedItems.Observe(float64(n))
}

// ObserveState records an item landing in state (unchecked, found, not_found).
func (m *Metrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(state).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware counts requests by the mux pattern that served them, so ids in
// paths don't explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
