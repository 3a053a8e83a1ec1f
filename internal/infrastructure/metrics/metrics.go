package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hond"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the daemon's Prometheus instruments on a private registry.
//
// Thread Safety: All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	commandSends      *prometheus.CounterVec
	catalogLoads      *prometheus.CounterVec
	catalogCommands   *prometheus.GaugeVec
	attributeChanges  *prometheus.CounterVec
	validationErrors  *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	websocketSessions prometheus.Gauge
}

// New creates the instruments and registers them, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "command",
			Name:      "sends_total",
			Help:      "Command transmission attempts by appliance, command and outcome.",
		}, []string{"mac", "command", "outcome"}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "loads_total",
			Help:      "Command catalog loads by appliance and outcome.",
		}, []string{"mac", "outcome"}),
		catalogCommands: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "commands",
			Help:      "Number of commands in the current catalog.",
		}, []string{"mac"}),
		attributeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribute",
			Name:      "changes_total",
			Help:      "Attribute value changes applied to the live store.",
		}, []string{"mac"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parameter",
			Name:      "validation_errors_total",
			Help:      "Rejected parameter values by key.",
		}, []string{"key"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		websocketSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "sessions",
			Help:      "Open WebSocket sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commandSends,
		m.catalogLoads,
		m.catalogCommands,
		m.attributeChanges,
		m.validationErrors,
		m.httpRequests,
		m.httpDuration,
		m.websocketSessions,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CommandSent counts one transmission attempt.
func (m *Metrics) CommandSent(mac, command string, success bool) {
	m.commandSends.WithLabelValues(mac, command, outcome(success)).Inc()
}

// CatalogLoaded counts a catalog load and, on success, records its size.
func (m *Metrics) CatalogLoaded(mac string, commands int, err error) {
	m.catalogLoads.WithLabelValues(mac, outcome(err == nil)).Inc()
	if err == nil {
		m.catalogCommands.WithLabelValues(mac).Set(float64(commands))
	}
}

// AttributesChanged counts applied attribute changes.
func (m *Metrics) AttributesChanged(mac string, n int) {
	if n > 0 {
		m.attributeChanges.WithLabelValues(mac).Add(float64(n))
	}
}

// ValidationFailed counts a rejected parameter value.
func (m *Metrics) ValidationFailed(key string) {
	m.validationErrors.WithLabelValues(key).Inc()
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// WebSocketOpened and WebSocketClosed track open hub sessions.
func (m *Metrics) WebSocketOpened() { m.websocketSessions.Inc() }

// WebSocketClosed decrements the open session gauge.
func (m *Metrics) WebSocketClosed() { m.websocketSessions.Dec() }

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
