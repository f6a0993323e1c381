// Package server assembles the gateway: router, middleware, chat handler,
// health endpoints, metrics and the evidence pipeline.
//
// Routes:
//
//	POST /api/chat   relay a conversation as server-sent events
//	GET  /health     liveness
//	GET  /ready      readiness (upstream credential, evidence storage)
//	GET  /version    build information
//	GET  /metrics    Prometheus exposition, when enabled
//
// Middleware runs in this order, outermost first: recovery, request id,
// logging, CORS, trace context extraction.
//
// Usage:
//
//	source, err := providerfactory.NewSource(cfg.Upstream)
//	if err != nil {
//	    return err
//	}
//	srv, err := server.New(ctx, cfg, source, server.WithVersion(info))
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx is done and shutdown completes
//
// Shutdown waits up to server.shutdown_timeout for in-flight relays, then
// cuts the remaining connections, drains the evidence recorder and flushes
// pending spans.
package server
