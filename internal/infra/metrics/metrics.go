// Package metrics holds the Prometheus collectors of the front server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "etuition"

// Metrics holds all Prometheus metrics of the session gate
type Metrics struct {
	registry *prometheus.Registry

	// Guard decisions by guard ("identity", "role") and decision kind
	GuardDecisions *prometheus.CounterVec

	// Role lookups by result ("success", "error")
	RoleFetches       *prometheus.CounterVec
	RoleFetchDuration prometheus.Histogram

	// Forced logouts after the backend rejected the credential
	ForcedLogouts prometheus.Counter

	// Backend requests by method and status class
	BackendRequests *prometheus.HistogramVec

	// Identity operations by operation and result kind
	IdentityOperations *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Total number of route guard decisions",
			},
			[]string{"guard", "decision"},
		),
		RoleFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "role_fetches_total",
				Help:      "Total number of role lookups sent to the backend",
			},
			[]string{"result"},
		),
		RoleFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "role_fetch_duration_seconds",
				Help:      "Role lookup latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ForcedLogouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forced_logouts_total",
				Help:      "Total number of sign-outs forced by a 401/403 backend response",
			},
		),
		BackendRequests: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "status"},
		),
		IdentityOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identity_operations_total",
				Help:      "Total number of identity provider operations",
			},
			[]string{"operation", "result"},
		),
	}
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
