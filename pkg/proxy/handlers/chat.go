package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
	"grokgate/pkg/evidence/recorder"
	"grokgate/pkg/providers"
	"grokgate/pkg/proxy"
	"grokgate/pkg/proxy/middleware"
	"grokgate/pkg/proxy/types"
	"grokgate/pkg/relay"
	"grokgate/pkg/telemetry/logging"
	"grokgate/pkg/telemetry/metrics"
	"grokgate/pkg/telemetry/tracing"
)

// MissingAPIKeyDetail is the error detail returned while the xAI credential
// is not configured.
const MissingAPIKeyDetail = "GROK_API_KEY is not configured"

var errMissingAPIKey = errors.New(MissingAPIKeyDetail)

// Rejection reasons reported to metrics.
const (
	rejectConfiguration  = "configuration"
	rejectInvalidRequest = "invalid_request"
	rejectUpstreamOpen   = "upstream_open"
)

// ChatHandler serves POST /api/chat: it relays one completion stream per
// request as Server-Sent Events.
//
// Only Upstream and Source are required. Nil Metrics, Tracer and Recorder
// disable the corresponding concern.
type ChatHandler struct {
	Upstream config.UpstreamConfig
	Source   providers.CompletionSource
	Metrics  *metrics.Collector
	Tracer   *tracing.Tracer
	Recorder *recorder.Recorder
	Logger   *slog.Logger
}

// NewChatHandler creates a chat handler streaming from source.
func NewChatHandler(upstream config.UpstreamConfig, source providers.CompletionSource) *ChatHandler {
	return &ChatHandler{
		Upstream: upstream,
		Source:   source,
		Logger:   slog.Default().With("component", "chat"),
	}
}

// chatRequest carries per-request state through ServeHTTP.
type chatRequest struct {
	ctx       context.Context
	requestID string
	start     time.Time
	record    *evidence.RelayRecord
}

// ServeHTTP implements http.Handler.
//
// Errors before the stream is opened are answered with a JSON error body
// and never produce an event. Once the stream is open the response is 200
// text/event-stream; an upstream failure then writes one [ERROR] event and
// aborts the connection so clients can tell it apart from a clean end.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cr := &chatRequest{
		ctx:       r.Context(),
		requestID: middleware.GetRequestID(r.Context()),
		start:     middleware.GetStartTime(r.Context()),
	}
	if cr.start.IsZero() {
		cr.start = time.Now()
	}
	cr.record = &evidence.RelayRecord{
		RequestID:   cr.requestID,
		Backend:     h.Source.Name(),
		Model:       h.model(),
		RequestTime: cr.start,
	}

	ctx, span := h.Tracer.Start(cr.ctx, tracing.SpanChat)
	defer span.End()
	cr.ctx = ctx
	if h.Tracer.Enabled() {
		if traceID := tracing.TraceID(ctx); traceID != "" {
			w.Header().Set(tracing.TraceIDHeader, traceID)
		}
	}
	tracing.SetSourceAttributes(span, h.Source.Name(), h.model())

	// Checked before the body is read: with no credential nothing is
	// parsed and nothing is opened.
	if h.Upstream.RequiresAPIKey() && !h.Upstream.HasAPIKey() {
		h.Logger.ErrorContext(ctx, "rejecting chat request, upstream credential missing",
			"backend", h.Upstream.Backend,
		)
		tracing.SetStatus(span, errMissingAPIKey)
		h.reject(w, cr, types.NewConfigurationError(MissingAPIKeyDetail), rejectConfiguration, rejectConfiguration)
		return
	}

	chatReq, err := proxy.ParseChatRequest(r)
	if err != nil {
		h.Logger.WarnContext(ctx, "invalid chat request", "error", err)
		tracing.SetStatus(span, err)
		h.reject(w, cr, proxy.HandleError(err), rejectInvalidRequest, "")
		return
	}

	conv := chatReq.Conversation()
	if chatReq.SessionID != "" {
		ctx = logging.WithSession(ctx, chatReq.SessionID)
		cr.ctx = ctx
	}
	cr.record.SessionID = chatReq.SessionID
	cr.record.Messages = len(conv)
	cr.record.SystemPrompt = h.Upstream.SystemPrompt != ""
	cr.record.ConversationHash = recorder.HashConversation(conv)
	tracing.SetRequestAttributes(span, cr.requestID, chatReq.SessionID, len(conv))

	h.Logger.InfoContext(ctx, "processing chat request",
		"source", h.Source.Name(),
		"messages", len(conv),
	)

	stream, err := h.open(ctx, conv)
	if err != nil {
		kind := providers.Kind(err)
		h.Metrics.RecordUpstreamError(h.Source.Name(), kind)
		tracing.SetErrorKind(span, kind)
		tracing.SetStatus(span, err)
		h.Logger.ErrorContext(ctx, "failed to open upstream stream",
			"source", h.Source.Name(),
			"error_kind", kind,
			"error", err,
		)
		h.reject(w, cr, proxy.HandleError(err), rejectUpstreamOpen, kind)
		return
	}

	relay.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	done := h.Metrics.RelayStarted(h.Source.Name())
	res, err := relay.New(stream, relay.NewSSEWriter(w)).Run(ctx)
	done()

	h.finish(cr, span, res, err)

	if res.Outcome == relay.OutcomeFailed {
		// The [ERROR] event is already flushed. Abort so the response is not
		// terminated cleanly.
		panic(http.ErrAbortHandler)
	}
}

// open starts the upstream stream under its own span.
func (h *ChatHandler) open(ctx context.Context, conv providers.Conversation) (providers.TokenStream, error) {
	ctx, span := h.Tracer.Start(ctx, tracing.SpanUpstreamOpen)
	defer span.End()
	tracing.SetSourceAttributes(span, h.Source.Name(), h.model())

	start := time.Now()
	stream, err := h.Source.Stream(ctx, conv, h.Upstream.SystemPrompt)
	h.Metrics.RecordUpstreamOpen(h.Source.Name(), time.Since(start))
	tracing.SetStatus(span, err)
	return stream, err
}

// finish records the outcome of a relay that reached the streaming phase.
func (h *ChatHandler) finish(cr *chatRequest, span trace.Span, res relay.Result, err error) {
	outcome := string(res.Outcome)
	source := h.Source.Name()

	h.Metrics.RecordRelay(source, outcome, res.Tokens, res.FirstTokenLatency, res.Duration)
	tracing.SetRelayAttributes(span, outcome, res.Tokens)

	cr.record.Outcome = outcome
	cr.record.StatusCode = http.StatusOK
	cr.record.TokensSent = res.Tokens
	cr.record.FirstTokenLatency = res.FirstTokenLatency
	cr.record.Duration = time.Since(cr.start)

	attrs := []any{
		"source", source,
		"outcome", outcome,
		"tokens", res.Tokens,
		"first_token_ms", res.FirstTokenLatency.Milliseconds(),
		"duration_ms", res.Duration.Milliseconds(),
	}

	switch res.Outcome {
	case relay.OutcomeCompleted:
		tracing.SetStatus(span, nil)
		h.Logger.InfoContext(cr.ctx, "chat relay completed", attrs...)
	case relay.OutcomeFailed:
		kind := providers.Kind(err)
		h.Metrics.RecordUpstreamError(source, kind)
		tracing.SetErrorKind(span, kind)
		tracing.SetStatus(span, err)
		cr.record.Error = err.Error()
		cr.record.ErrorType = kind
		h.Logger.ErrorContext(cr.ctx, "chat relay failed", append(attrs, "error_kind", kind, "error", err)...)
	default:
		// Client went away; not an error of ours.
		cr.record.ErrorType = providers.Kind(err)
		if errors.Is(err, relay.ErrDownstreamClosed) {
			cr.record.ErrorType = "downstream"
		}
		tracing.AddEvent(span, "client disconnected")
		h.Logger.InfoContext(cr.ctx, "chat relay cancelled", append(attrs, "reason", err)...)
	}

	h.record(cr)
}

// reject writes errResp as the whole response and records the rejection.
func (h *ChatHandler) reject(w http.ResponseWriter, cr *chatRequest, errResp *types.ErrorResponse, reason, errorType string) {
	errResp.RequestID = cr.requestID
	h.Metrics.RecordRejected(reason)

	cr.record.Outcome = evidence.OutcomeRejected
	cr.record.StatusCode = errResp.HTTPStatusCode()
	cr.record.Error = errResp.Detail
	cr.record.ErrorType = errorType
	if cr.record.ErrorType == "" {
		cr.record.ErrorType = reason
	}
	cr.record.Duration = time.Since(cr.start)
	h.record(cr)

	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		h.Logger.ErrorContext(cr.ctx, "failed to write error response", "error", err)
	}
}

func (h *ChatHandler) record(cr *chatRequest) {
	// The request context may already be cancelled; the record must still
	// be queued.
	if err := h.Recorder.Record(context.WithoutCancel(cr.ctx), cr.record); err != nil {
		h.Logger.DebugContext(cr.ctx, "evidence record not queued", "error", err)
	}
}

func (h *ChatHandler) model() string {
	if h.Upstream.RequiresAPIKey() {
		return h.Upstream.Model
	}
	return ""
}
