// Package query validates evidence queries before they reach a storage
// backend.
//
// The validator checks:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is one of request_time, recorded_time, duration, tokens_sent
//   - Sort order is asc or desc
//   - Time range is valid (start <= end)
//   - Outcome is completed, failed, cancelled or rejected
//
// # Basic Usage
//
//	q := &evidence.Query{SessionID: "abc", Outcome: "failed"}
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q)
//	records, err := store.Query(ctx, q)
package query
