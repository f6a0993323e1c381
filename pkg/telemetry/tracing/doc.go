// Package tracing provides OpenTelemetry tracing for the gateway.
//
// # Overview
//
// Each chat request gets a grokgate.chat span covering the whole relay, with
// a child span for opening the upstream stream. Spans are exported over OTLP
// gRPC when telemetry.tracing.enabled is set; otherwise a noop tracer is used
// and span creation costs almost nothing.
//
// # Trace Context Propagation
//
// HTTPMiddleware extracts W3C Trace Context from incoming requests, so a
// caller that sends
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// sees the relay spans inside its own trace.
//
// # Sampling
//
// Root spans are sampled by trace ID ratio (telemetry.tracing.sample_ratio).
// Child spans follow the parent's decision.
//
// # Usage
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanChat)
//	defer span.End()
//	tracing.SetRelayAttributes(span, "completed", 12)
package tracing
