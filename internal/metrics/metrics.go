// Package metrics exposes Prometheus collectors for configuration loading,
// remote refreshes, schema validation and the admin API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aetb_config"

// Metrics holds the collectors registered on a single registry.
type Metrics struct {
	registry *prometheus.Registry

	loads              *prometheus.CounterVec
	refreshes          *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	remoteConnected    prometheus.Gauge
	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Configuration loads by source (file or defaults).",
			},
			[]string{"source"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_refreshes_total",
				Help:      "Remote refresh attempts by result.",
			},
			[]string{"result"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Settings sections that failed schema validation.",
			},
			[]string{"section"},
		),
		remoteConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_connected",
			Help:      "1 when a remote config store is connected.",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Admin API requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Admin API request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.loads,
		m.refreshes,
		m.validationFailures,
		m.remoteConnected,
		m.requests,
		m.requestDuration,
	)
	return m
}

// ObserveLoad counts a configuration load.
func (m *Metrics) ObserveLoad(source string) {
	m.loads.WithLabelValues(source).Inc()
}

// ObserveRefresh counts a remote refresh attempt.
func (m *Metrics) ObserveRefresh(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}

// ObserveValidationFailure counts a section that failed validation.
func (m *Metrics) ObserveValidationFailure(section string) {
	m.validationFailures.WithLabelValues(section).Inc()
}

// SetRemoteConnected records whether a remote store is connected.
func (m *Metrics) SetRemoteConnected(connected bool) {
	if connected {
		m.remoteConnected.Set(1)
		return
	}
	m.remoteConnected.Set(0)
}

// ObserveRequest records a completed admin API request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
