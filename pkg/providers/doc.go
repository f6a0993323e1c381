// Package providers defines the upstream side of the relay: conversation
// types, the CompletionSource and TokenStream contracts, and the upstream
// error taxonomy.
//
// # Sources
//
// A CompletionSource opens one TokenStream per request. The stream is pulled
// one token at a time with Next and must be closed by the consumer. Closing
// early is how a consumer cancels the upstream call, for example when the
// HTTP client disconnects.
//
// Concrete sources live in sub-packages:
//
//   - grok: xAI's OpenAI-compatible chat completions API
//   - placeholder: a deterministic local reply used for demos and tests
//
// # Errors
//
// Every failure raised by Stream or Next matches ErrUpstream:
//
//	if errors.Is(err, providers.ErrUpstream) { ... }
//
// The concrete types (AuthError, RateLimitError, TimeoutError, ParseError,
// StreamError, ProviderError) carry the detail used for HTTP status mapping,
// metrics labels and retry decisions.
//
// # Retries
//
// Retrying is a policy layered above a source with NewRetryingSource. It only
// re-attempts opening the stream, never a stream that has produced tokens.
package providers
