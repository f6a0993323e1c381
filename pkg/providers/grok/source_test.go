package grok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"grokgate/pkg/providers"
)

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func writeChunk(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	chunk := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1700000000,
		"model":   "grok-2-latest",
		"choices": []map[string]interface{}{
			{"index": 0, "delta": map[string]string{"content": content}},
		},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		t.Fatalf("failed to marshal chunk: %v", err)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	w.(http.Flusher).Flush()
}

func newSource(t *testing.T, url string, timeout time.Duration) *Source {
	t.Helper()
	src, err := New(Config{
		APIKey:  "xai-test-key",
		BaseURL: url,
		Model:   "grok-2-latest",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return src
}

func drain(t *testing.T, stream providers.TokenStream) ([]providers.Token, error) {
	t.Helper()
	var toks []providers.Token
	for {
		tok, err := stream.Next(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return toks, nil
			}
			return toks, err
		}
		toks = append(toks, tok)
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing key", Config{Model: "m", Timeout: time.Second}, "api_key"},
		{"blank key", Config{APIKey: "  ", Model: "m", Timeout: time.Second}, "api_key"},
		{"missing model", Config{APIKey: "k", Timeout: time.Second}, "model"},
		{"missing timeout", Config{APIKey: "k", Model: "m"}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("New() error = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestSource_StreamsTokens(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "")
		writeChunk(t, w, "Hello")
		writeChunk(t, w, " world")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	src := newSource(t, server.URL, 5*time.Second)
	conv := providers.Conversation{{Role: providers.RoleUser, Content: "Hi"}}

	stream, err := src.Stream(context.Background(), conv, "You are Grok.")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	toks, err := drain(t, stream)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(toks) != 2 || toks[0] != "Hello" || toks[1] != " world" {
		t.Errorf("tokens = %q, want [Hello, \" world\"]", toks)
	}

	if auth != "Bearer xai-test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if !got.Stream || got.Model != "grok-2-latest" {
		t.Errorf("request = %+v, want streaming grok-2-latest", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "You are Grok." {
		t.Errorf("messages = %+v, want system prompt first", got.Messages)
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Hi" {
		t.Errorf("messages[1] = %+v", got.Messages[1])
	}

	// Exhausted streams keep reporting EOF.
	if _, err := stream.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after EOF = %v, want io.EOF", err)
	}
}

func TestSource_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	toks, err := drain(t, stream)
	if err != nil || len(toks) != 0 {
		t.Errorf("drain() = %q, %v; want no tokens and no error", toks, err)
	}
}

func TestSource_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			check:  func(err error) bool { var e *providers.AuthError; return errors.As(err, &e) },
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down","type":"rate_limit"}}`,
			check:  func(err error) bool { var e *providers.RateLimitError; return errors.As(err, &e) },
		},
		{
			name:   "server error without json",
			status: http.StatusBadGateway,
			body:   `upstream unavailable`,
			check: func(err error) bool {
				var e *providers.ProviderError
				return errors.As(err, &e) && e.StatusCode == http.StatusBadGateway
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newSource(t, server.URL, time.Second).Stream(context.Background(), nil, "")
			if err == nil {
				t.Fatal("Stream() succeeded, want error")
			}
			if !errors.Is(err, providers.ErrUpstream) {
				t.Errorf("error %v does not match ErrUpstream", err)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
		})
	}
}

func TestSource_MidStreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "partial")
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, 5*time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	toks, err := drain(t, stream)
	if len(toks) != 1 || toks[0] != "partial" {
		t.Errorf("tokens = %q, want [partial]", toks)
	}
	if err == nil {
		t.Fatal("expected an error after the connection was aborted")
	}
	if !errors.Is(err, providers.ErrUpstream) {
		t.Errorf("error %v does not match ErrUpstream", err)
	}
}

func TestSource_MalformedEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	_, err = drain(t, stream)
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want ParseError", err)
	}
}

func TestSource_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "slow")
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, 200*time.Millisecond).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	_, err = drain(t, stream)
	var timeoutErr *providers.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if timeoutErr.Timeout != 200*time.Millisecond {
		t.Errorf("Timeout = %v, want 200ms", timeoutErr.Timeout)
	}
}

func TestSource_CloseCancelsUpstream(t *testing.T) {
	cancelled := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "first")
		<-r.Context().Done()
		close(cancelled)
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, 10*time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}

	tok, err := stream.Next(context.Background())
	if err != nil || tok != "first" {
		t.Fatalf("Next() = %q, %v", tok, err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was not cancelled after Close")
	}
}

func TestSource_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "first")
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newSource(t, server.URL, 10*time.Second).Stream(ctx, nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(ctx); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	cancel()

	_, err = stream.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Next() after cancel = %v, want context.Canceled", err)
	}
	if providers.Kind(err) != "canceled" {
		t.Errorf("Kind() = %q, want canceled", providers.Kind(err))
	}
}

func TestSource_InBandErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(t, w, "partial")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\",\"type\":\"server_error\"}}\n\n")
		w.(http.Flusher).Flush()
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, 5*time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	toks, err := drain(t, stream)
	if len(toks) != 1 || toks[0] != "partial" {
		t.Errorf("tokens = %q, want [partial]", toks)
	}
	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error = %T (%v), want *providers.ProviderError", err, err)
	}
	if !strings.Contains(provErr.Message, "model overloaded") {
		t.Errorf("message = %q, want it to carry the upstream text", provErr.Message)
	}
	if !errors.Is(err, providers.ErrUpstream) {
		t.Errorf("error %v does not match ErrUpstream", err)
	}
}

func TestSource_ErrorIsSticky(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\"}}\n\n")
		w.(http.Flusher).Flush()
		writeChunk(t, w, "late")
	}))
	defer server.Close()

	stream, err := newSource(t, server.URL, 5*time.Second).Stream(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	_, first := stream.Next(context.Background())
	if first == nil || errors.Is(first, io.EOF) {
		t.Fatalf("first Next() = %v, want an upstream error", first)
	}
	for i := 0; i < 2; i++ {
		tok, err := stream.Next(context.Background())
		if tok != "" || err != first {
			t.Errorf("Next() #%d = (%q, %v), want the first error again", i+2, tok, err)
		}
	}
}

func TestSource_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceparent := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent <- r.Header.Get("traceparent")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	stream, err := newSource(t, server.URL, 5*time.Second).Stream(ctx, nil, "")
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	defer stream.Close()

	got := <-traceparent
	if !strings.Contains(got, "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("upstream traceparent = %q, want trace ID propagated", got)
	}
}
