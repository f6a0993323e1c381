// Package evidence keeps an audit trail of chat relays.
//
// Every POST /api/chat produces one RelayRecord: who asked (request and
// session ids), which backend and model answered, how the relay ended and
// how long it took. Records never hold message text. The conversation is
// reduced to a message count and a SHA-256 hash so identical conversations
// can be correlated without storing them.
//
// The subpackages split the work:
//
//   - recorder: asynchronous, non-blocking recording from the request path
//   - storage: memory and SQLite backends behind the Storage interface
//   - query: validation and defaults for Query values
//   - retention: age and count based pruning on a cron schedule
//   - export: JSON, CSV and text output plus summary reports
//
// Typical wiring:
//
//	store, err := storage.New(cfg.Evidence)
//	if err != nil {
//	    return err
//	}
//	rec := recorder.NewRecorder(store, recorder.ConfigFrom(cfg.Evidence))
//	defer rec.Close()
//
//	rec.Record(ctx, &evidence.RelayRecord{RequestID: id, Outcome: evidence.OutcomeCompleted})
package evidence
