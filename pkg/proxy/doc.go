// Package proxy holds the request and response plumbing shared by the chat
// handler: body parsing, JSON error responses and the mapping from upstream
// errors to HTTP statuses.
//
// Subpackages:
//
//   - handlers: the POST /api/chat handler
//   - middleware: recovery, request id, logging and CORS
//   - types: request bodies and the error envelope
//
// Errors raised before a stream starts are written as
//
//	{"detail": "...", "code": "...", "request_id": "..."}
//
// with the status chosen by HandleError:
//
//	RequestError          its own status (400, 413 or 422)
//	providers.AuthError   502
//	RateLimitError        429
//	TimeoutError          504
//	ConfigError           500
//	other upstream error  502
//	anything else         500
package proxy
