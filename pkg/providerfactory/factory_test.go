package providerfactory

import (
	"context"
	"errors"
	"testing"
	"time"

	"grokgate/pkg/config"
	"grokgate/pkg/providers"
	"grokgate/pkg/providers/grok"
	"grokgate/pkg/providers/placeholder"
)

func xaiConfig() config.UpstreamConfig {
	return config.UpstreamConfig{
		Backend: config.BackendXAI,
		APIKey:  "xai-test-key",
		BaseURL: "https://api.x.ai/v1",
		Model:   "grok-2-latest",
		Timeout: 60 * time.Second,
	}
}

func TestNewSource_XAI(t *testing.T) {
	source, err := NewSource(xaiConfig())
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	if _, ok := source.(*grok.Source); !ok {
		t.Errorf("expected *grok.Source without retries, got %T", source)
	}
	if source.Name() != grok.Name {
		t.Errorf("expected source name %s, got %s", grok.Name, source.Name())
	}
}

func TestNewSource_XAIWithRetries(t *testing.T) {
	cfg := xaiConfig()
	cfg.MaxRetries = 2
	cfg.RetryBackoff = 10 * time.Millisecond

	source, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	if _, ok := source.(*providers.RetryingSource); !ok {
		t.Errorf("expected *providers.RetryingSource, got %T", source)
	}
	if source.Name() != grok.Name {
		t.Errorf("retrying source should report %s, got %s", grok.Name, source.Name())
	}
}

func TestNewSource_MissingAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		cfg := xaiConfig()
		cfg.APIKey = key
		if _, err := NewSource(cfg); !errors.Is(err, ErrAPIKeyMissing) {
			t.Errorf("key %q: expected ErrAPIKeyMissing, got %v", key, err)
		}
	}
}

func TestNewSource_Placeholder(t *testing.T) {
	source, err := NewSource(config.UpstreamConfig{Backend: config.BackendPlaceholder})
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	if source.Name() != placeholder.Name {
		t.Errorf("expected source name %s, got %s", placeholder.Name, source.Name())
	}
}

func TestNewSource_UnsupportedBackend(t *testing.T) {
	_, err := NewSource(config.UpstreamConfig{Backend: "bard"})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "backend" {
		t.Errorf("expected field backend, got %s", cfgErr.Field)
	}
}

func TestNewUnconfigured(t *testing.T) {
	src := NewUnconfigured(config.BackendXAI, ErrAPIKeyMissing)

	if src.Name() != config.BackendXAI {
		t.Errorf("Name() = %q, want %q", src.Name(), config.BackendXAI)
	}

	stream, err := src.Stream(context.Background(), nil, "")
	if stream != nil {
		t.Error("Stream() returned a stream")
	}
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Stream() error = %v, want *providers.ConfigError", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("Field = %q, want api_key", cfgErr.Field)
	}
}
