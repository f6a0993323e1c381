// Package telemetry groups the gateway's observability packages.
//
// # Components
//
//   - logging: slog construction with secret redaction and request-scoped fields
//   - metrics: Prometheus relay and upstream metrics
//   - tracing: OpenTelemetry spans for relays, exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// Each component is configured from the telemetry section of config.Config
// and built once in the server; nothing here keeps package-level state
// except the OpenTelemetry global provider set by tracing.New.
package telemetry
