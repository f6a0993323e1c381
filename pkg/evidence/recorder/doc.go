// Package recorder writes relay records asynchronously.
//
// # Recording Flow
//
//  1. The chat handler finishes a request (relayed, failed or rejected)
//  2. It builds an evidence.RelayRecord with counts, timings and a hash of
//     the conversation, never the messages themselves
//  3. Record puts the record on a buffered channel and returns at once
//  4. A worker goroutine writes it with a per-write timeout
//
// When the buffer is full the record is dropped rather than slowing the
// relay down; Config.OnDrop lets the caller count drops. Close drains the
// buffer before returning, so records of requests finished before shutdown
// are kept.
//
// # Basic Usage
//
//	rec := recorder.NewRecorder(store, recorder.ConfigFrom(cfg.Evidence))
//	defer rec.Close()
//
//	_ = rec.Record(ctx, &evidence.RelayRecord{
//	    RequestID: requestID,
//	    Outcome:   evidence.OutcomeCompleted,
//	})
package recorder
