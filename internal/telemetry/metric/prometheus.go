package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaultlink"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Domain events
	EventsTotal     *prometheus.CounterVec
	SinkErrorsTotal *prometheus.CounterVec

	// Requests
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter

	// RESP notification endpoint
	RespConnections prometheus.Gauge
}

// NewRegistry creates a registry with all VaultLink metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events emitted, by event name.",
		}, []string{"event"}),
		SinkErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_sink_errors_total",
			Help:      "Event sink failures, by sink.",
		}, []string{"sink"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Handled requests, by protocol, operation and status.",
		}, []string{"protocol", "operation", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency, by protocol and operation.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"protocol", "operation"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		RespConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resp_connections",
			Help:      "Open RESP subscriber connections.",
		}),
	}

	reg.MustRegister(
		r.EventsTotal,
		r.SinkErrorsTotal,
		r.RequestsTotal,
		r.RequestDuration,
		r.RateLimited,
		r.RespConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Prometheus returns the underlying registry for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// ObserveEvent counts a domain event.
func (r *Registry) ObserveEvent(name string) {
	r.EventsTotal.WithLabelValues(name).Inc()
}

// ObserveSinkError counts a failed event sink.
func (r *Registry) ObserveSinkError(sink string) {
	r.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// ObserveRequest records one handled request.
func (r *Registry) ObserveRequest(protocol, operation string, status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(protocol, operation, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(protocol, operation).Observe(d.Seconds())
}
