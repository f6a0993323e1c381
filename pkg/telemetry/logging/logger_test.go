package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"grokgate/pkg/config"
)

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "verbose"}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "WARN", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn should be written, got %q", buf.String())
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Info("hello", "tokens", 3)
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "tokens=3") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)

	ctx := WithSession(WithRequestID(context.Background(), "req-1"), "sess-9")
	logger.InfoContext(ctx, "relay completed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["session_id"] != "sess-9" {
		t.Errorf("entry = %v, want request and session ids", entry)
	}
}

func TestContextFields_ExplicitWins(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)

	ctx := WithRequestID(context.Background(), "from-ctx")
	logger.InfoContext(ctx, "msg", "request_id", "explicit")

	if strings.Count(buf.String(), "request_id") != 1 {
		t.Errorf("request_id should appear once: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"request_id":"explicit"`) {
		t.Errorf("explicit request_id should win: %s", buf.String())
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json", Redact: true}, &buf)

	logger.With("api_key", "xai-abcdefghijklmnop").Info("calling upstream",
		"error", errors.New(`401: Incorrect API key provided: xai-abcdefghijklmnop`),
		"header", "Bearer abc.def.ghi",
		"model", "grok-2-latest",
	)

	out := buf.String()
	if strings.Contains(out, "abcdefghijklmnop") {
		t.Errorf("key leaked: %s", out)
	}
	if strings.Contains(out, "abc.def.ghi") {
		t.Errorf("bearer token leaked: %s", out)
	}
	if !strings.Contains(out, "grok-2-latest") {
		t.Errorf("non-sensitive values should be kept: %s", out)
	}
}

func TestRedaction_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json", Redact: false}, &buf)
	logger.Info("x", "note", "xai-abcdefghijklmnop")
	if !strings.Contains(buf.String(), "xai-abcdefghijklmnop") {
		t.Errorf("values should pass through without redaction: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)
	Component(logger, "relay").Info("x")
	if !strings.Contains(buf.String(), `"component":"relay"`) {
		t.Errorf("component missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "": "INFO", "Warning": "WARN", "ERROR": "ERROR"} {
		got, err := ParseLevel(in)
		if err != nil || got.String() != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %s", in, got, err, want)
		}
	}
}
