package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"grokgate/pkg/providers"
)

// State is the lifecycle position of a Relay.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Outcome summarises how a Run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

var (
	// ErrRelayUsed is returned when Run is called more than once.
	ErrRelayUsed = errors.New("relay already run")

	// ErrDownstreamClosed is returned when the client can no longer be
	// written to.
	ErrDownstreamClosed = errors.New("downstream closed")
)

// Result describes a finished Run.
type Result struct {
	Outcome           Outcome
	Tokens            int
	FirstTokenLatency time.Duration
	Duration          time.Duration
}

// Relay copies one TokenStream to one Sink.
type Relay struct {
	stream providers.TokenStream
	sink   Sink
	state  atomic.Int32
	now    func() time.Time
}

// New returns an idle relay that owns stream until Run returns.
func New(stream providers.TokenStream, sink Sink) *Relay {
	return &Relay{stream: stream, sink: sink, now: time.Now}
}

// State returns the current state. It is safe to call concurrently with Run.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// Run streams tokens until the upstream is exhausted, fails, or ctx is
// cancelled. The stream is closed before Run returns.
//
// A nil error means [DONE] was written. An upstream failure is returned
// after the [ERROR] event has been written; it matches
// providers.ErrUpstream. Cancellation and downstream write failures return
// an error with OutcomeCancelled and no terminal event.
func (r *Relay) Run(ctx context.Context) (Result, error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateStreaming)) {
		return Result{}, ErrRelayUsed
	}
	defer r.stream.Close()

	start := r.now()
	var res Result
	finish := func(outcome Outcome, state State) {
		res.Outcome = outcome
		res.Duration = r.now().Sub(start)
		r.state.Store(int32(state))
	}

	for {
		if err := ctx.Err(); err != nil {
			finish(OutcomeCancelled, StateFailed)
			return res, fmt.Errorf("relay cancelled: %w", err)
		}

		tok, err := r.stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			if werr := r.sink.WriteEvent(DoneEvent()); werr != nil {
				finish(OutcomeCancelled, StateFailed)
				return res, fmt.Errorf("%w: %w", ErrDownstreamClosed, werr)
			}
			finish(OutcomeCompleted, StateCompleted)
			return res, nil
		}
		if err != nil {
			// A failure caused by our own cancellation has no one to report to.
			if ctxErr := ctx.Err(); ctxErr != nil {
				finish(OutcomeCancelled, StateFailed)
				return res, fmt.Errorf("relay cancelled: %w", ctxErr)
			}
			if werr := r.sink.WriteEvent(ErrorEvent(err.Error())); werr != nil {
				finish(OutcomeCancelled, StateFailed)
				return res, fmt.Errorf("%w: %w", ErrDownstreamClosed, werr)
			}
			finish(OutcomeFailed, StateFailed)
			if !errors.Is(err, providers.ErrUpstream) {
				err = &providers.StreamError{Message: "token stream failed", Cause: err}
			}
			return res, err
		}

		if werr := r.sink.WriteEvent(DataEvent(string(tok))); werr != nil {
			finish(OutcomeCancelled, StateFailed)
			return res, fmt.Errorf("%w: %w", ErrDownstreamClosed, werr)
		}
		if res.Tokens == 0 {
			res.FirstTokenLatency = r.now().Sub(start)
		}
		res.Tokens++
	}
}
