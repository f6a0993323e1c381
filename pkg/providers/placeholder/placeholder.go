// Package placeholder provides a deterministic CompletionSource that needs no
// network access. It answers every conversation with the same short reply,
// one word at a time, which makes it useful for local development and for
// exercising the relay end to end.
package placeholder

import (
	"context"
	"io"
	"strings"
	"time"

	"grokgate/pkg/providers"
)

// Name is the source name reported in logs and metrics.
const Name = "placeholder"

// Reply is the text streamed for every conversation.
const Reply = "Hello from Grok"

// DefaultDelay is the pause before each word.
const DefaultDelay = 100 * time.Millisecond

// Source streams Reply split on whitespace.
type Source struct {
	words []providers.Token
	delay time.Duration
}

// New returns a placeholder source pausing delay before each word. A negative
// delay is treated as zero.
func New(delay time.Duration) *Source {
	if delay < 0 {
		delay = 0
	}
	fields := strings.Fields(Reply)
	words := make([]providers.Token, len(fields))
	for i, f := range fields {
		words[i] = providers.Token(f)
	}
	return &Source{words: words, delay: delay}
}

// Name implements providers.CompletionSource.
func (s *Source) Name() string { return Name }

// Stream implements providers.CompletionSource. The conversation and system
// prompt are ignored.
func (s *Source) Stream(ctx context.Context, conv providers.Conversation, systemPrompt string) (providers.TokenStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &providers.StreamError{Provider: Name, Message: "request cancelled", Cause: err}
	}
	return &stream{words: s.words, delay: s.delay, closed: make(chan struct{})}, nil
}

type stream struct {
	words  []providers.Token
	delay  time.Duration
	pos    int
	closed chan struct{}
}

func (st *stream) Next(ctx context.Context) (providers.Token, error) {
	select {
	case <-st.closed:
		return "", io.EOF
	default:
	}
	if st.pos >= len(st.words) {
		return "", io.EOF
	}

	if st.delay > 0 {
		timer := time.NewTimer(st.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", &providers.StreamError{Provider: Name, Message: "request cancelled", Cause: ctx.Err()}
		case <-st.closed:
			return "", io.EOF
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", &providers.StreamError{Provider: Name, Message: "request cancelled", Cause: err}
	}

	tok := st.words[st.pos]
	st.pos++
	return tok, nil
}

func (st *stream) Close() error {
	select {
	case <-st.closed:
	default:
		close(st.closed)
	}
	return nil
}
