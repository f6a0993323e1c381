package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"grokgate/pkg/config"
)

// Collector owns the gateway's Prometheus registry and the relay and
// upstream metric families registered on it.
//
// A nil *Collector is valid and records nothing, so callers never need to
// check whether metrics are enabled.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	relayMetrics    *RelayMetrics
	upstreamMetrics *UpstreamMetrics
}

// NewCollector creates a collector registering on registry. If registry is
// nil a fresh one is created with the Go runtime and process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		relayMetrics:    NewRelayMetrics(cfg, registry),
		upstreamMetrics: NewUpstreamMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RelayStarted marks a relay as in flight. Call the returned function when
// it ends.
func (c *Collector) RelayStarted(source string) func() {
	if !c.enabled() {
		return func() {}
	}
	g := c.relayMetrics.inFlight.WithLabelValues(source)
	g.Inc()
	return g.Dec
}

// RecordRelay records a finished relay.
//
// Parameters:
//   - source: completion source name (e.g. "xai", "placeholder")
//   - outcome: "completed", "failed" or "cancelled"
//   - tokens: number of data events written
//   - firstToken: latency until the first token, 0 if none was sent
//   - duration: total relay duration
func (c *Collector) RecordRelay(source, outcome string, tokens int, firstToken, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.relayMetrics.Record(source, outcome, tokens, firstToken, duration)
}

// RecordRejected records a chat request answered with a JSON error before
// any relay started.
//
// Parameters:
//   - reason: "configuration", "invalid_request" or "upstream_open"
func (c *Collector) RecordRejected(reason string) {
	if !c.enabled() {
		return
	}
	c.relayMetrics.rejected.WithLabelValues(reason).Inc()
}

// RecordUpstreamOpen records how long opening the upstream stream took.
func (c *Collector) RecordUpstreamOpen(source string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordOpen(source, latency)
}

// RecordUpstreamError records an upstream failure by kind (auth,
// rate_limit, timeout, parse, stream, provider).
func (c *Collector) RecordUpstreamError(source, kind string) {
	if !c.enabled() || kind == "" {
		return
	}
	c.upstreamMetrics.RecordError(source, kind)
}

// RecordEvidenceDropped records audit records lost because the recorder
// buffer was full or storage failed.
func (c *Collector) RecordEvidenceDropped(reason string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.evidenceDropped.WithLabelValues(reason).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
