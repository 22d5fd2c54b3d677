package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records remote platform calls and dashboard telemetry events.
// It satisfies analytics.CallObserver and dashboard.Telemetry.
type Metrics struct {
	registry      *prometheus.Registry
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	events        *prometheus.CounterVec
}

// NewMetrics registers the dashboard collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gdboard_remote_calls_total",
				Help: "Total number of calls to the analytics platform.",
			},
			[]string{"operation", "status"},
		),
		remoteLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gdboard_remote_call_duration_seconds",
				Help:    "Analytics platform call latency by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gdboard_events_total",
				Help: "Dashboard actions and render events.",
			},
			[]string{"event"},
		),
	}
	m.registry.MustRegister(m.remoteCalls, m.remoteLatency, m.events)
	return m
}

// ObserveCall records one remote call. A zero status means no response.
func (m *Metrics) ObserveCall(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.remoteCalls.WithLabelValues(operation, label).Inc()
	m.remoteLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Record counts one telemetry event by name. The payload is not exported.
func (m *Metrics) Record(_ context.Context, event string, _ map[string]any) {
	if m == nil || event == "" {
		return
	}
	m.events.WithLabelValues(event).Inc()
}

// Registry exposes the underlying registry for gathering and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
