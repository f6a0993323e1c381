package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler creates the root sampler for ratio.
//
//	telemetry:
//	  tracing:
//	    sample_ratio: 0.1  # Sample 10% of traces
//
// A ratio of 1 or more samples everything and 0 or less samples nothing.
// Ratio sampling hashes the trace ID, so the decision is consistent across
// services sharing a trace.
//
// The sampler is wrapped in ParentBased, so a request arriving with a
// traceparent header keeps the caller's decision:
//   - If parent span is sampled → child is sampled
//   - If parent span is not sampled → child is not sampled
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
