package grok

import (
	"context"
	"errors"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"grokgate/pkg/providers"
)

// tokenStream adapts an openai.ChatCompletionStream to providers.TokenStream.
type tokenStream struct {
	source  *Source
	stream  *openai.ChatCompletionStream
	parent  context.Context
	callCtx context.Context
	cancel  context.CancelFunc

	closeOnce sync.Once
	done      bool
	err       error
}

// Next returns the next non-empty content delta. Chunks carrying only a role,
// a finish reason or usage are skipped.
//
// The connection is bound to the context passed to Stream; ctx is checked
// before each read so a cancelled consumer does not block on the network.
// The first failure is sticky: every later call returns it again.
func (t *tokenStream) Next(ctx context.Context) (providers.Token, error) {
	if t.err != nil {
		return "", t.err
	}
	if t.done {
		return "", io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			t.err = &providers.StreamError{Provider: Name, Message: "request cancelled", Cause: err}
			return "", t.err
		}

		resp, err := t.stream.Recv()
		if errors.Is(err, io.EOF) {
			t.done = true
			return "", io.EOF
		}
		if err != nil {
			t.err = t.source.mapError(t.parent, t.callCtx, err, true)
			return "", t.err
		}

		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				return providers.Token(choice.Delta.Content), nil
			}
		}
	}
}

// Close releases the HTTP response and cancels the call context.
func (t *tokenStream) Close() error {
	t.closeOnce.Do(func() {
		t.stream.Close()
		t.cancel()
	})
	return nil
}
