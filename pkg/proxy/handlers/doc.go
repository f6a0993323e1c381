// Package handlers provides the HTTP handler for the chat endpoint.
//
// ChatHandler serves POST /api/chat. Each request goes through the same
// steps:
//
//  1. Refuse with 500 when the xAI backend has no API key
//  2. Parse and validate the JSON body (400 or 422)
//  3. Open exactly one upstream stream (JSON error on failure)
//  4. Relay tokens as server-sent events until [DONE] or [ERROR]
//
// After step 3 the status is always 200. A failure while streaming is
// reported in-band with a single [ERROR] event and the connection is then
// aborted with http.ErrAbortHandler. When the client disconnects, the
// request context is cancelled and the upstream stream is closed.
//
// Health, readiness and version endpoints live in package health.
package handlers
