package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"grokgate/pkg/proxy/types"
)

// RecoveryMiddleware recovers from panics in HTTP handlers.
//
// http.ErrAbortHandler is re-raised so the server drops the connection
// without logging a stack trace; handlers use it to mark a stream as
// abnormally terminated. Any other panic is logged with its stack. If the
// response has not started, a 500 JSON error is written; otherwise the
// connection is aborted, since a status can no longer be sent.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			// The request ID middleware runs inside this one, so the ID is
			// only visible on the response.
			requestID := w.Header().Get(RequestIDHeader)
			slog.ErrorContext(r.Context(), "panic in handler",
				"component", "http",
				"error", err,
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if rw.written {
				panic(http.ErrAbortHandler)
			}

			errResp := types.NewServerError(
				"An internal error occurred. Please try again later.",
			)
			errResp.RequestID = requestID

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errResp)
		}()

		next.ServeHTTP(rw, r)
	})
}
