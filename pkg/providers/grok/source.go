package grok

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"grokgate/pkg/providers"
	"grokgate/pkg/telemetry/tracing"
)

// Name is the provider name used in errors, logs and metrics.
const Name = "xai"

// Config configures a Source.
type Config struct {
	// APIKey is the xAI credential. Required.
	APIKey string

	// BaseURL is the OpenAI-compatible API root, e.g. "https://api.x.ai/v1".
	BaseURL string

	// Model is the model identifier, e.g. "grok-2-latest".
	Model string

	// Timeout bounds each call from request to final token.
	Timeout time.Duration

	// HTTPClient overrides the transport. It must not set a client-wide
	// Timeout, which would cut long replies short; Timeout above applies
	// instead. Its transport is wrapped to propagate trace context.
	HTTPClient *http.Client
}

// Source streams chat completions from xAI's OpenAI-compatible endpoint.
// It is safe for concurrent use; each Stream call opens its own connection.
type Source struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Source. It fails with a *providers.ConfigError when a
// required field is missing.
func New(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &providers.ConfigError{Provider: Name, Field: "api_key", Message: "must not be empty"}
	}
	if cfg.Model == "" {
		return nil, &providers.ConfigError{Provider: Name, Field: "model", Message: "must not be empty"}
	}
	if cfg.Timeout <= 0 {
		return nil, &providers.ConfigError{Provider: Name, Field: "timeout", Message: "must be positive"}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		httpClient = &c
	}
	httpClient.Transport = &tracing.Transport{Base: httpClient.Transport}
	config.HTTPClient = httpClient

	return &Source{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  slog.Default().With("component", "providers.grok"),
	}, nil
}

// Name implements providers.CompletionSource.
func (s *Source) Name() string {
	return Name
}

// Stream implements providers.CompletionSource. The returned stream lives
// under a deadline of the configured timeout, derived from ctx.
func (s *Source) Stream(ctx context.Context, conv providers.Conversation, systemPrompt string) (providers.TokenStream, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)

	req := openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: toOpenAIMessages(conv.WithSystemPrompt(systemPrompt)),
		Stream:   true,
	}

	start := time.Now()
	stream, err := s.client.CreateChatCompletionStream(callCtx, req)
	if err != nil {
		mapped := s.mapError(ctx, callCtx, err, false)
		cancel()
		s.logger.WarnContext(ctx, "failed to open upstream stream",
			"model", s.model,
			"error", mapped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, mapped
	}

	s.logger.DebugContext(ctx, "upstream stream opened",
		"model", s.model,
		"messages", len(req.Messages),
		"open_ms", time.Since(start).Milliseconds(),
	)

	return &tokenStream{
		source:  s,
		stream:  stream,
		parent:  ctx,
		callCtx: callCtx,
		cancel:  cancel,
	}, nil
}

func toOpenAIMessages(conv providers.Conversation) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(conv))
	for _, m := range conv {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// mapError converts a go-openai or transport error into the provider
// taxonomy. parent is the caller's context and callCtx the deadline-bound
// one derived from it, which lets a caller cancellation be told apart from
// the timeout firing. Unclassified failures after the stream opened are
// StreamErrors; before, ProviderErrors.
func (s *Source) mapError(parent, callCtx context.Context, err error, midStream bool) error {
	if parent.Err() != nil {
		return &providers.StreamError{Provider: Name, Message: "request cancelled", Cause: parent.Err()}
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &providers.TimeoutError{Provider: Name, Timeout: s.timeout}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 0 {
			// Error payload delivered inside the event stream.
			return &providers.ProviderError{Provider: Name, Message: apiErr.Message, Cause: err}
		}
		return providers.ErrorFromStatus(Name, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return providers.ErrorFromStatus(Name, reqErr.HTTPStatusCode, msg, err)
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &providers.ParseError{Provider: Name, Cause: err}
	}

	if midStream {
		return &providers.StreamError{Provider: Name, Message: "reading upstream stream", Cause: err}
	}
	return &providers.ProviderError{Provider: Name, Message: err.Error(), Cause: err}
}
