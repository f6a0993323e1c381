package storage

import (
	"context"
	"sort"
	"sync"

	"grokgate/pkg/evidence"
)

// MemoryStorage implements evidence.Storage with an in-memory map. Records
// are lost on restart; it backs evidence.backend=memory and tests.
type MemoryStorage struct {
	records map[string]*evidence.RelayRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.RelayRecord),
	}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.RelayRecord) error {
	if err := ctx.Err(); err != nil {
		return evidence.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query retrieves copies of the records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.RelayRecord, error) {
	s.mu.RLock()
	results := []*evidence.RelayRecord{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*evidence.RelayRecord{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops all records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.RelayRecord)
	return nil
}

// Size returns the number of records in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *evidence.RelayRecord, query *evidence.Query) bool {
	if query.StartTime != nil && record.RequestTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RequestTime.After(*query.EndTime) {
		return false
	}
	if query.RequestID != "" && record.RequestID != query.RequestID {
		return false
	}
	if query.SessionID != "" && record.SessionID != query.SessionID {
		return false
	}
	if query.Backend != "" && record.Backend != query.Backend {
		return false
	}
	if query.Model != "" && record.Model != query.Model {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}
	return true
}

// sortRecords orders records the way the SQLite backend's ORDER BY does.
// Ties are broken by ID so results are stable.
func sortRecords(records []*evidence.RelayRecord, sortBy, order string) {
	less := func(a, b *evidence.RelayRecord) int {
		switch sortBy {
		case "recorded_time":
			return a.RecordedTime.Compare(b.RecordedTime)
		case "duration":
			return compareInt64(int64(a.Duration), int64(b.Duration))
		case "tokens_sent":
			return compareInt64(int64(a.TokensSent), int64(b.TokensSent))
		default:
			return a.RequestTime.Compare(b.RequestTime)
		}
	}

	desc := order != "asc"
	sort.SliceStable(records, func(i, j int) bool {
		c := less(records[i], records[j])
		if c == 0 {
			return records[i].ID < records[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
