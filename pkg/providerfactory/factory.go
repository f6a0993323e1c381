package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"grokgate/pkg/config"
	"grokgate/pkg/providers"
	"grokgate/pkg/providers/grok"
	"grokgate/pkg/providers/placeholder"
)

// ErrAPIKeyMissing is returned by NewSource when the configured backend needs
// an API key and none is set. Callers may still start and answer chat
// requests with a configuration error.
var ErrAPIKeyMissing = errors.New("GROK_API_KEY is not configured")

// NewSource creates the completion source selected by cfg.Backend.
//
// Supported backends:
//   - "xai": the Grok chat completions API
//   - "placeholder": a fixed "Hello from Grok" reply, no network access
//
// The xai source is wrapped in a providers.RetryingSource when
// cfg.MaxRetries is positive.
func NewSource(cfg config.UpstreamConfig) (providers.CompletionSource, error) {
	slog.Debug("creating completion source",
		"backend", cfg.Backend,
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	var source providers.CompletionSource

	switch cfg.Backend {
	case config.BackendXAI:
		if !cfg.HasAPIKey() {
			return nil, ErrAPIKeyMissing
		}
		src, err := grok.New(grok.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s source: %w", cfg.Backend, err)
		}
		source = providers.NewRetryingSource(src, providers.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
		})

	case config.BackendPlaceholder:
		source = placeholder.New(cfg.PlaceholderDelay)

	default:
		return nil, &providers.ConfigError{
			Provider: cfg.Backend,
			Field:    "backend",
			Message:  fmt.Sprintf("unsupported backend: %q (supported: xai, placeholder)", cfg.Backend),
		}
	}

	slog.Info("completion source created",
		"backend", cfg.Backend,
		"source", source.Name(),
	)

	return source, nil
}

// unconfiguredSource stands in for a backend that could not be built. The
// chat handler's configuration gate answers before it is reached; Stream
// only fails.
type unconfiguredSource struct {
	backend string
	cause   error
}

// NewUnconfigured returns a source named backend whose Stream always fails
// with a configuration error wrapping cause. It lets the server start, and
// report not-ready, while the upstream credential is missing.
func NewUnconfigured(backend string, cause error) providers.CompletionSource {
	return &unconfiguredSource{backend: backend, cause: cause}
}

func (s *unconfiguredSource) Name() string { return s.backend }

func (s *unconfiguredSource) Stream(context.Context, providers.Conversation, string) (providers.TokenStream, error) {
	return nil, &providers.ConfigError{
		Provider: s.backend,
		Field:    "api_key",
		Message:  s.cause.Error(),
	}
}
