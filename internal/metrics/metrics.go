// Package metrics exposes Prometheus metrics for the HTTP surface, the
// resolver and the reference store breakers.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/ward-resolver/internal/engine"
)

const namespace = "ward_resolver"

// Metrics owns a private registry
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	storeQueriesTotal  *prometheus.CounterVec
	failuresTotal      *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

var _ engine.Observer = (*Metrics)(nil)

// New creates and registers all collectors
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total HTTP requests processed.",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: constLabels,
			},
		),
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "resolver",
				Name:        "resolutions_total",
				Help:        "Completed resolutions by basis.",
				ConstLabels: constLabels,
			},
			[]string{"basis"},
		),
		resolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "resolver",
				Name:        "duration_seconds",
				Help:        "Resolution duration in seconds.",
				Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				ConstLabels: constLabels,
			},
		),
		storeQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "store",
				Name:        "queries_total",
				Help:        "Fuzzy search queries issued by collection.",
				ConstLabels: constLabels,
			},
			[]string{"collection"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "resolver",
				Name:        "failures_total",
				Help:        "Failed resolutions by error kind.",
				ConstLabels: constLabels,
			},
			[]string{"kind"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "store",
				Name:        "breaker_state",
				Help:        "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
				ConstLabels: constLabels,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.resolutionsTotal,
		m.resolutionDuration,
		m.storeQueriesTotal,
		m.failuresTotal,
		m.breakerState,
	)
	return m
}

// Handler serves the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request totals, durations and in-flight requests
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := routePath(r)
		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveQueries counts store queries issued for one collection
func (m *Metrics) ObserveQueries(collection string, n int) {
	if n <= 0 {
		return
	}
	m.storeQueriesTotal.WithLabelValues(collection).Add(float64(n))
}

// ObserveResolution records one completed resolution
func (m *Metrics) ObserveResolution(basis engine.Basis, resolved bool, elapsed time.Duration) {
	label := string(basis)
	if !resolved {
		label = "unresolved"
	}
	m.resolutionsTotal.WithLabelValues(label).Inc()
	m.resolutionDuration.Observe(elapsed.Seconds())
}

// ObserveFailure counts one failed resolution
func (m *Metrics) ObserveFailure(kind string) {
	m.failuresTotal.WithLabelValues(kind).Inc()
}

// ObserveBreaker tracks a breaker state change; it matches resilience.StateListener
func (m *Metrics) ObserveBreaker(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(operation).Set(float64(to))
}

// routePath uses the mux route template so path labels stay bounded
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
