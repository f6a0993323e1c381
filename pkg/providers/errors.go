package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUpstream is the category every upstream failure belongs to. Callers test
// with errors.Is(err, ErrUpstream) and use errors.As for the specific kind.
var ErrUpstream = errors.New("upstream failure")

// ProviderError represents a non-success response from the provider that is
// not covered by a more specific type.
type ProviderError struct {
	// Provider is the source name.
	Provider string

	// StatusCode is the upstream HTTP status, 0 if none was received.
	StatusCode int

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }
func (e *ProviderError) Is(target error) bool { return target == ErrUpstream }

// AuthError indicates the provider rejected the credential.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrUpstream }

// RateLimitError indicates the provider throttled the request.
type RateLimitError struct {
	Provider string

	// RetryAfter is the provider's suggested wait, 0 if not given.
	RetryAfter time.Duration

	Message string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrUpstream }

// TimeoutError indicates the upstream call exceeded its configured bound.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrUpstream }

// ParseError indicates the upstream stream framing could not be decoded.
type ParseError struct {
	Provider string

	// RawResponse holds the offending payload, truncated.
	RawResponse string

	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
func (e *ParseError) Is(target error) bool { return target == ErrUpstream }

// StreamError indicates the connection failed or was cancelled while tokens
// were being read.
type StreamError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

func (e *StreamError) Unwrap() error { return e.Cause }
func (e *StreamError) Is(target error) bool { return target == ErrUpstream }

// ConfigError reports an unusable source configuration. It is returned by
// constructors, never from Stream or Next.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ErrorFromStatus maps a non-success upstream HTTP status to the taxonomy.
func ErrorFromStatus(provider string, status int, message string, cause error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Provider: provider, Message: message}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, Message: message}
	default:
		return &ProviderError{Provider: provider, StatusCode: status, Message: message, Cause: cause}
	}
}

// IsRetryable reports whether opening the stream again may succeed.
// Rate limits, timeouts, connection failures and 5xx responses are
// retryable. Authentication and client errors are not.
func IsRetryable(err error) bool {
	var (
		authErr    *AuthError
		rateErr    *RateLimitError
		timeoutErr *TimeoutError
		streamErr  *StreamError
		provErr    *ProviderError
	)
	switch {
	case errors.As(err, &authErr):
		return false
	case errors.As(err, &rateErr), errors.As(err, &timeoutErr):
		return true
	case errors.As(err, &streamErr):
		return !errors.Is(err, context.Canceled)
	case errors.As(err, &provErr):
		return provErr.StatusCode == 0 || provErr.StatusCode >= 500 ||
			provErr.StatusCode == http.StatusRequestTimeout
	}
	return false
}

// Kind returns a short label for err suitable for metrics and evidence.
func Kind(err error) string {
	var (
		authErr    *AuthError
		rateErr    *RateLimitError
		timeoutErr *TimeoutError
		parseErr   *ParseError
		streamErr  *StreamError
		provErr    *ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.As(err, &provErr):
		return "provider"
	}
	return "unknown"
}
