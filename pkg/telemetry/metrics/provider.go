package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grokgate/pkg/config"
)

// UpstreamMetrics tracks calls to the completion source.
//
// Metrics:
//   - grokgate_upstream_open_seconds: latency of opening a stream
//   - grokgate_upstream_errors_total: upstream errors by kind
//   - grokgate_evidence_dropped_total: audit records that were not stored
type UpstreamMetrics struct {
	openLatency     *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	evidenceDropped *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		openLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_open_seconds",
				Help:      "Latency of opening an upstream stream in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream errors by kind",
			},
			[]string{"source", "kind"},
		),

		evidenceDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "evidence_dropped_total",
				Help:      "Relay audit records that were not stored",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		um.openLatency,
		um.errors,
		um.evidenceDropped,
	)

	return um
}

// RecordOpen records the latency of opening a stream.
func (um *UpstreamMetrics) RecordOpen(source string, latency time.Duration) {
	um.openLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordError records an upstream error.
func (um *UpstreamMetrics) RecordError(source, kind string) {
	um.errors.WithLabelValues(source, kind).Inc()
}
