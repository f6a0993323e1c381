// Package middleware provides HTTP middleware for cross-cutting concerns:
// request IDs, structured request logging, CORS and panic recovery.
//
// # Middleware Chain
//
// Order (outermost to innermost):
//  1. Recovery: recover from panics, re-raise stream aborts
//  2. RequestID: generate and propagate request ID
//  3. Logging: log request/response details
//  4. CORS: add Cross-Origin Resource Sharing headers
//
// With chi:
//
//	r.Use(middleware.RecoveryMiddleware)
//	r.Use(middleware.RequestIDMiddleware)
//	r.Use(middleware.LoggingMiddleware)
//	r.Use(middleware.CORSMiddleware(middleware.NewCORSConfig(cfg.Server.CORS)))
//
// # Streaming
//
// The wrappers installed by Logging and Recovery implement http.Flusher and
// Unwrap, so http.ResponseController reaches the connection and server-sent
// events are delivered as they are written. There is deliberately no
// per-request timeout middleware: streamed replies are bounded by the
// upstream timeout instead.
//
// # Aborted responses
//
// A handler that panics with http.ErrAbortHandler makes net/http close the
// connection without completing the chunked body, which clients observe as
// an unexpected EOF. Recovery and Logging both let that panic through.
package middleware
