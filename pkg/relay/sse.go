package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// Sink receives encoded events. Implementations must deliver each event
// before returning.
type Sink interface {
	WriteEvent(Event) error
}

// SSEWriter is a Sink that writes to an http.ResponseWriter and flushes
// after every event.
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewSSEWriter wraps w. Call SetSSEHeaders before the first event.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	return &SSEWriter{w: w, rc: http.NewResponseController(w)}
}

// WriteEvent writes e and flushes it to the client.
func (s *SSEWriter) WriteEvent(e Event) error {
	if _, err := s.w.Write(e.Encode()); err != nil {
		return fmt.Errorf("failed to write %s event: %w", e.Kind, err)
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to flush %s event: %w", e.Kind, err)
	}
	return nil
}

// SetSSEHeaders sets the headers for an unbuffered event stream.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
