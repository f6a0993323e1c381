package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Upstream.Backend != BackendXAI {
		t.Errorf("Upstream.Backend = %q, want %q", cfg.Upstream.Backend, BackendXAI)
	}
	if cfg.Upstream.Timeout != 60*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 60s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.PlaceholderDelay != 100*time.Millisecond {
		t.Errorf("Upstream.PlaceholderDelay = %v, want 100ms", cfg.Upstream.PlaceholderDelay)
	}
	if cfg.Evidence.AsyncBuffer != DefaultEvidenceAsyncBuffer {
		t.Errorf("Evidence.AsyncBuffer = %d", cfg.Evidence.AsyncBuffer)
	}
	if cfg.Telemetry.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q", cfg.Telemetry.Metrics.Path)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 1234},
		Upstream: UpstreamConfig{Model: "grok-beta", Timeout: time.Second},
	}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 1234 {
		t.Errorf("Server.Port overwritten: %d", cfg.Server.Port)
	}
	if cfg.Upstream.Model != "grok-beta" {
		t.Errorf("Upstream.Model overwritten: %q", cfg.Upstream.Model)
	}
	if cfg.Upstream.Timeout != time.Second {
		t.Errorf("Upstream.Timeout overwritten: %v", cfg.Upstream.Timeout)
	}
}

func TestUpstreamConfig_HasAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"xai-abc", true},
	}
	for _, tt := range tests {
		if got := (UpstreamConfig{APIKey: tt.key}).HasAPIKey(); got != tt.want {
			t.Errorf("HasAPIKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
