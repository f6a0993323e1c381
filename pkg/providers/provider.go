package providers

import "context"

// CompletionSource produces an assistant reply as a stream of tokens.
//
// Implementations talk to a remote model (see the grok package) or fake one
// (see the placeholder package). The relay depends only on this interface.
//
// Example usage:
//
//	stream, err := source.Stream(ctx, conv, cfg.SystemPrompt)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    tok, err := stream.Next(ctx)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(tok)
//	}
type CompletionSource interface {
	// Name identifies the source in logs, metrics and evidence.
	Name() string

	// Stream opens exactly one upstream stream for conv. A non-empty
	// systemPrompt is sent ahead of the conversation.
	//
	// The returned stream is bound to ctx: cancelling ctx aborts it. Errors
	// returned here occur before any token exists and match ErrUpstream.
	Stream(ctx context.Context, conv Conversation, systemPrompt string) (TokenStream, error)
}

// TokenStream is a finite, single-consumer, pull-based token sequence.
// It is not safe for concurrent use.
type TokenStream interface {
	// Next blocks until the next token is available.
	// Returns io.EOF when the reply is complete.
	// Any other error aborts the stream and matches ErrUpstream; no further
	// tokens follow it.
	Next(ctx context.Context) (Token, error)

	// Close releases the underlying connection. Closing before io.EOF
	// cancels the upstream call. Close is idempotent.
	Close() error
}
