// Package providertest provides a scripted CompletionSource for tests of
// code that consumes token streams.
package providertest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"grokgate/pkg/providers"
)

// Source is a scripted providers.CompletionSource. The zero value streams no
// tokens and completes immediately.
type Source struct {
	// SourceName is returned by Name. Default: "stub".
	SourceName string

	// Tokens are produced in order.
	Tokens []providers.Token

	// Err, when set, is returned by Next after FailAfter tokens have been
	// produced.
	Err       error
	FailAfter int

	// OpenErr, when set, is returned by Stream.
	OpenErr error

	// Endless produces numbered tokens until the stream is closed or its
	// context ends. Tokens is ignored.
	Endless bool

	// Delay is waited before each token.
	Delay time.Duration

	mu      sync.Mutex
	streams []*Stream
	convs   []providers.Conversation
	prompts []string
}

// Name implements providers.CompletionSource.
func (s *Source) Name() string {
	if s.SourceName == "" {
		return "stub"
	}
	return s.SourceName
}

// Stream implements providers.CompletionSource.
func (s *Source) Stream(ctx context.Context, conv providers.Conversation, systemPrompt string) (providers.TokenStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs = append(s.convs, conv)
	s.prompts = append(s.prompts, systemPrompt)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}

	st := &Stream{src: s, done: make(chan struct{})}
	s.streams = append(s.streams, st)
	return st, nil
}

// Opened returns how many times Stream was called.
func (s *Source) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// LastConversation returns the conversation passed to the latest Stream call.
func (s *Source) LastConversation() providers.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.convs) == 0 {
		return nil
	}
	return s.convs[len(s.convs)-1]
}

// LastSystemPrompt returns the system prompt passed to the latest Stream call.
func (s *Source) LastSystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// LastStream returns the most recently opened stream, or nil.
func (s *Source) LastStream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) == 0 {
		return nil
	}
	return s.streams[len(s.streams)-1]
}

// Stream is the TokenStream returned by Source. It records how it ended.
type Stream struct {
	src *Source

	mu        sync.Mutex
	pos       int
	closed    bool
	exhausted bool
	cancelled bool
	failed    bool
	done      chan struct{}
}

// Next implements providers.TokenStream.
func (st *Stream) Next(ctx context.Context) (providers.Token, error) {
	if st.src.Delay > 0 {
		t := time.NewTimer(st.src.Delay)
		select {
		case <-ctx.Done():
		case <-st.done:
		case <-t.C:
		}
		t.Stop()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return "", &providers.StreamError{Provider: st.src.Name(), Message: "stream closed", Cause: context.Canceled}
	}
	if err := ctx.Err(); err != nil {
		st.cancelled = true
		return "", &providers.StreamError{Provider: st.src.Name(), Message: "request cancelled", Cause: err}
	}
	if st.src.Err != nil && st.pos == st.src.FailAfter {
		st.failed = true
		return "", st.src.Err
	}
	if st.src.Endless {
		st.pos++
		return providers.Token(fmt.Sprintf("tok%d ", st.pos)), nil
	}
	if st.pos >= len(st.src.Tokens) {
		st.exhausted = true
		return "", io.EOF
	}
	tok := st.src.Tokens[st.pos]
	st.pos++
	return tok, nil
}

// Close implements providers.TokenStream. Closing before exhaustion or a
// scripted failure marks the stream cancelled.
func (st *Stream) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return nil
	}
	st.closed = true
	if !st.exhausted && !st.failed {
		st.cancelled = true
	}
	close(st.done)
	return nil
}

// Done is closed when the stream is closed.
func (st *Stream) Done() <-chan struct{} {
	return st.done
}

// Closed reports whether Close was called.
func (st *Stream) Closed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.closed
}

// Exhausted reports whether Next returned io.EOF.
func (st *Stream) Exhausted() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.exhausted
}

// Cancelled reports whether the stream was abandoned before exhaustion.
func (st *Stream) Cancelled() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cancelled
}

// Served returns the number of tokens produced.
func (st *Stream) Served() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pos
}
