package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanChat         = "grokgate.chat"
	SpanUpstreamOpen = "grokgate.upstream.open"
)

// Custom attribute keys use the "grokgate.*" namespace.
const (
	AttrSource    = "grokgate.source"
	AttrModel     = "grokgate.model"
	AttrRequestID = "grokgate.request_id"
	AttrSession   = "grokgate.session"
	AttrMessages  = "grokgate.messages"
	AttrOutcome   = "grokgate.relay.outcome"
	AttrTokens    = "grokgate.relay.tokens"
	AttrErrorKind = "grokgate.error.kind"
)

// SetRequestAttributes sets request identity attributes on a span. Empty
// values are skipped.
func SetRequestAttributes(span trace.Span, requestID, session string, messages int) {
	attrs := []attribute.KeyValue{attribute.Int(AttrMessages, messages)}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	if session != "" {
		attrs = append(attrs, attribute.String(AttrSession, session))
	}
	span.SetAttributes(attrs...)
}

// SetSourceAttributes sets the completion source and model.
func SetSourceAttributes(span trace.Span, source, model string) {
	attrs := []attribute.KeyValue{attribute.String(AttrSource, source)}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrModel, model))
	}
	span.SetAttributes(attrs...)
}

// SetRelayAttributes records how a relay ended.
func SetRelayAttributes(span trace.Span, outcome string, tokens int) {
	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrTokens, tokens),
	)
}

// SetErrorKind tags a span with the upstream error kind.
func SetErrorKind(span trace.Span, kind string) {
	if kind == "" {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
}

// AddEvent adds a named event to the span.
//
// Events mark significant points in a span's lifetime:
//
//	AddEvent(span, "first_token")
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
