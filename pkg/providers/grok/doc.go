// Package grok implements providers.CompletionSource for xAI's Grok models.
//
// xAI serves an OpenAI-compatible chat completions API, so the source is a
// thin layer over the go-openai client pointed at the xAI base URL. Each
// Stream call issues one POST /chat/completions with "stream": true and reads
// the server-sent events one content delta at a time.
//
// Errors are translated into the providers taxonomy:
//
//   - 401/403             -> *providers.AuthError
//   - 429                 -> *providers.RateLimitError
//   - other HTTP statuses -> *providers.ProviderError
//   - deadline exceeded   -> *providers.TimeoutError
//   - malformed events    -> *providers.ParseError
//   - broken connection   -> *providers.StreamError
package grok
