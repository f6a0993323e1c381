// Package config builds the grokgate process configuration.
//
// Configuration is assembled once at startup and handed to the components
// that need it. Nothing in this package keeps global state.
//
// # Sources
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Built-in defaults (Default)
//  2. Optional YAML file (--config, default config.yaml)
//  3. A dotenv file (.env), which never overrides variables already set
//  4. Environment variables
//  5. Command-line flags (applied by the CLI)
//
// # Environment Variables
//
//   - GROK_API_KEY      upstream credential (optional at startup)
//   - GROK_MODEL        model identifier, default grok-2-latest
//   - GROK_BASE_URL     OpenAI-compatible endpoint, default https://api.x.ai/v1
//   - GROK_BACKEND      xai or placeholder
//   - GROK_TIMEOUT      upstream timeout, "60" or "60s"
//   - GROK_MAX_RETRIES  stream-open retries
//   - SYSTEM_PROMPT     prompt sent ahead of every conversation
//   - HOST, PORT        listener, default 0.0.0.0:8000
//   - ALLOWED_ORIGINS   comma-separated CORS origins
//   - LOG_LEVEL, LOG_FORMAT
//
// # Example
//
//	cfg, err := config.Load(config.LoadOptions{
//	    Path:     "config.yaml",
//	    Optional: true,
//	    EnvFile:  ".env",
//	})
package config
