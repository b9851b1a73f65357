// Package metrics exposes Prometheus instrumentation for workspace operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty" // Succeeded without a result
)

// Metrics groups the collectors of one workspace. Each workspace owns a
// registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// requestsTotal counts operations by name and outcome.
	// Labels: op (complete, resolve, rename, bind, ...), outcome (ok, error, empty)
	requestsTotal *prometheus.CounterVec

	// requestSeconds measures operation latency.
	// Labels: op
	requestSeconds *prometheus.HistogramVec

	schemaFiles  prometheus.Gauge
	documents    prometheus.Gauge
	reloadsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tagsense",
			Subsystem: "workspace",
			Name:      "requests_total",
			Help:      "Workspace operations by operation and outcome",
		}, []string{"op", "outcome"}),
		requestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tagsense",
			Subsystem: "workspace",
			Name:      "request_seconds",
			Help:      "Workspace operation latency",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		schemaFiles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tagsense",
			Subsystem: "schemas",
			Name:      "files_loaded",
			Help:      "Schema files currently loaded",
		}),
		documents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tagsense",
			Subsystem: "workspace",
			Name:      "documents_cached",
			Help:      "Parsed documents held in the cache",
		}),
		reloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tagsense",
			Subsystem: "schemas",
			Name:      "reloads_total",
			Help:      "Schema reloads by trigger and outcome",
		}, []string{"trigger", "outcome"}),
	}
}

// Registry returns the registry backing the collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one operation
func (m *Metrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(op, outcome).Inc()
	m.requestSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Track returns a function that records op when called with the final error.
// found=false with a nil error counts as OutcomeEmpty.
func (m *Metrics) Track(op string) func(found bool, err error) {
	start := time.Now()
	return func(found bool, err error) {
		outcome := OutcomeOK
		switch {
		case err != nil:
			outcome = OutcomeError
		case !found:
			outcome = OutcomeEmpty
		}
		m.ObserveRequest(op, outcome, time.Since(start))
	}
}

func (m *Metrics) SetSchemaFiles(n int) { m.schemaFiles.Set(float64(n)) }
func (m *Metrics) SetDocuments(n int)   { m.documents.Set(float64(n)) }

// RecordReload counts a schema reload; trigger is "manual" or "watch"
func (m *Metrics) RecordReload(trigger string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.reloadsTotal.WithLabelValues(trigger, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
