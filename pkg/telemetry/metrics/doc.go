// Package metrics provides Prometheus metrics for the relay gateway.
//
// # Metrics
//
//   - Relay metrics: relays by outcome, duration, time to first token,
//     tokens relayed, relays in flight, requests rejected before streaming
//   - Upstream metrics: stream open latency, errors by kind, dropped audit
//     records
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//
//	done := collector.RelayStarted("xai")
//	result, err := r.Run(ctx)
//	done()
//	collector.RecordRelay("xai", string(result.Outcome), result.Tokens,
//		result.FirstTokenLatency, result.Duration)
//
// A nil *Collector records nothing.
//
// # Prometheus Endpoint
//
//	# HELP grokgate_relays_total Total number of relays by outcome
//	# TYPE grokgate_relays_total counter
//	grokgate_relays_total{outcome="completed",source="xai"} 1234
package metrics
