package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryPolicy decides how often Stream is attempted again after a retryable
// failure. Only opening the stream is retried. Once a TokenStream has been
// returned its failures go straight to the caller, since tokens may already
// have been relayed.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts. 0 disables retrying.
	MaxRetries int

	// Backoff is the base delay; attempt n waits n*Backoff, or the provider's
	// Retry-After when that is longer.
	Backoff time.Duration
}

// RetryingSource wraps a CompletionSource with a RetryPolicy.
type RetryingSource struct {
	source CompletionSource
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingSource returns source wrapped with policy. A policy with no
// retries returns source itself.
func NewRetryingSource(source CompletionSource, policy RetryPolicy) CompletionSource {
	if policy.MaxRetries <= 0 {
		return source
	}
	return &RetryingSource{
		source: source,
		policy: policy,
		logger: slog.Default().With("component", "providers.retry"),
		sleep:  sleepContext,
	}
}

// Name returns the wrapped source's name.
func (r *RetryingSource) Name() string {
	return r.source.Name()
}

// Stream opens the wrapped source, retrying retryable failures.
func (r *RetryingSource) Stream(ctx context.Context, conv Conversation, systemPrompt string) (TokenStream, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * r.policy.Backoff
			var rl *RateLimitError
			if errors.As(lastErr, &rl) && rl.RetryAfter > wait {
				wait = rl.RetryAfter
			}
			r.logger.WarnContext(ctx, "retrying upstream stream",
				"source", r.source.Name(),
				"attempt", attempt,
				"wait_ms", wait.Milliseconds(),
				"error", lastErr,
			)
			if err := r.sleep(ctx, wait); err != nil {
				return nil, &StreamError{Provider: r.source.Name(), Message: "cancelled while waiting to retry", Cause: err}
			}
		}

		stream, err := r.source.Stream(ctx, conv, systemPrompt)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
