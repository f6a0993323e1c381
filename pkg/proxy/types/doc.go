// Package types defines the request and response bodies of the chat API.
//
// Request types:
//   - ChatRequest: body of POST /api/chat
//   - Message: one turn of the conversation
//
// Error types:
//   - ErrorResponse: JSON body for every non-streamed failure
//
// Errors use a flat envelope with a "detail" message:
//
//	{"detail": "GROK_API_KEY is not configured", "code": "configuration_error"}
//
// Streamed replies have no JSON schema; they are written as server-sent
// events by package relay.
package types
