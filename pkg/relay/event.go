package relay

import (
	"strings"
)

// Kind identifies a relay event.
type Kind string

const (
	KindData  Kind = "data"
	KindDone  Kind = "done"
	KindError Kind = "error"
)

const (
	doneMarker  = "[DONE]"
	errorMarker = "[ERROR]"
)

// Event is a single downstream event.
type Event struct {
	Kind Kind
	// Data is the token for KindData and the message for KindError.
	Data string
}

// DataEvent returns the event carrying tok.
func DataEvent(tok string) Event { return Event{Kind: KindData, Data: tok} }

// DoneEvent returns the successful terminal event.
func DoneEvent() Event { return Event{Kind: KindDone} }

// DefaultErrorMessage describes a failure whose error carries no text.
const DefaultErrorMessage = "upstream stream failed"

// ErrorEvent returns the failure terminal event. Line breaks in msg are
// folded so the event stays on one line; a blank msg becomes
// DefaultErrorMessage.
func ErrorEvent(msg string) Event {
	folded := strings.Join(strings.Fields(msg), " ")
	if folded == "" {
		folded = DefaultErrorMessage
	}
	return Event{Kind: KindError, Data: folded}
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

// Encode returns the wire form of e. Token text is written verbatim.
func (e Event) Encode() []byte {
	var payload string
	switch e.Kind {
	case KindDone:
		payload = doneMarker
	case KindError:
		payload = errorMarker
		if e.Data != "" {
			payload += " " + e.Data
		}
	default:
		payload = e.Data
	}

	buf := make([]byte, 0, len("data: ")+len(payload)+2)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, '\n', '\n')
	return buf
}
