// Package logging builds the process slog.Logger.
//
// The handler returned by New wraps the standard JSON or text handler and:
//   - adds request_id and session_id from the record's context
//   - masks credentials when redaction is enabled
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "relay completed", "tokens", 12) // includes request_id
//
// # Redaction
//
//   - values under keys such as api_key, token or authorization: ***
//   - xAI and OpenAI keys anywhere in a string: xai-*** / sk-***
//   - bearer tokens: Bearer ***
//
// Message content is never logged by this module, so no content-level
// redaction is attempted.
package logging
