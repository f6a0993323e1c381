// Package health serves the gateway's liveness, readiness and version
// endpoints.
//
// Liveness (GET /health) only reports that the process is running. Readiness
// (GET /ready) runs every registered check concurrently, each bounded by the
// checker timeout, and answers 503 while any of them fails. The server
// registers an "upstream" check that fails while the xAI backend has no API
// key, and an "evidence" check that pings the audit store when recording is
// enabled.
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("upstream", func(ctx context.Context) error {
//	    if !cfg.Upstream.HasAPIKey() {
//	        return errors.New("GROK_API_KEY is not configured")
//	    }
//	    return nil
//	})
//
//	router.Get("/health", checker.LivenessHandler())
//	router.Get("/ready", checker.ReadinessHandler())
package health
