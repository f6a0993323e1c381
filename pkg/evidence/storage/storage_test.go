package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
)

// createTempDB creates a temporary SQLite database for testing.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "evidence", "test.db")
	storage, err := NewSQLiteStorage(config.SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return storage, dbPath
}

// backends returns a fresh instance of every backend.
func backends(t *testing.T) map[string]evidence.Storage {
	t.Helper()
	sqlite, _ := createTempDB(t)
	return map[string]evidence.Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRecord(i int) *evidence.RelayRecord {
	outcome := evidence.OutcomeCompleted
	if i%3 == 2 {
		outcome = evidence.OutcomeFailed
	}
	return &evidence.RelayRecord{
		ID:                fmt.Sprintf("rec-%02d", i),
		RequestID:         fmt.Sprintf("req-%02d", i),
		SessionID:         fmt.Sprintf("session-%d", i%2),
		Backend:           "xai",
		Model:             "grok-2-latest",
		Messages:          i + 1,
		ConversationHash:  "abc123",
		Outcome:           outcome,
		TokensSent:        i * 10,
		StatusCode:        200,
		RequestTime:       baseTime.Add(time.Duration(i) * time.Minute),
		FirstTokenLatency: 150 * time.Millisecond,
		Duration:          time.Duration(i) * time.Second,
		RecordedTime:      baseTime.Add(time.Duration(i)*time.Minute + time.Second),
	}
}

func seed(t *testing.T, s evidence.Storage, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Store(context.Background(), testRecord(i)); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestStorage_StoreAndQuery(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := testRecord(2)
			want.Error = "xai: upstream timed out after 1m0s"
			want.ErrorType = "timeout"
			want.SystemPrompt = true

			if err := s.Store(ctx, want); err != nil {
				t.Fatalf("Store() failed: %v", err)
			}

			results, err := s.Query(ctx, &evidence.Query{})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 record, got %d", len(results))
			}

			got := results[0]
			if got.ID != want.ID || got.RequestID != want.RequestID || got.SessionID != want.SessionID {
				t.Errorf("identity = %+v", got)
			}
			if got.Outcome != want.Outcome || got.TokensSent != want.TokensSent || got.Messages != want.Messages {
				t.Errorf("result fields = %+v", got)
			}
			if got.Error != want.Error || got.ErrorType != want.ErrorType || !got.SystemPrompt {
				t.Errorf("error fields = %q %q %v", got.Error, got.ErrorType, got.SystemPrompt)
			}
			if !got.RequestTime.Equal(want.RequestTime) || !got.RecordedTime.Equal(want.RecordedTime) {
				t.Errorf("times = %v %v", got.RequestTime, got.RecordedTime)
			}
			if got.Duration != want.Duration || got.FirstTokenLatency != want.FirstTokenLatency {
				t.Errorf("durations = %v %v", got.Duration, got.FirstTokenLatency)
			}
		})
	}
}

func TestStorage_EmptyOptionalFields(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testRecord(0)
			rec.SessionID = ""
			rec.Model = ""
			if err := s.Store(ctx, rec); err != nil {
				t.Fatalf("Store() failed: %v", err)
			}

			results, err := s.Query(ctx, &evidence.Query{})
			if err != nil || len(results) != 1 {
				t.Fatalf("Query() = %d records, %v", len(results), err)
			}
			if results[0].SessionID != "" || results[0].Error != "" || results[0].Model != "" {
				t.Errorf("optional fields not empty: %+v", results[0])
			}
		})
	}
}

func TestStorage_DuplicateID(t *testing.T) {
	s, _ := createTempDB(t)
	ctx := context.Background()

	if err := s.Store(ctx, testRecord(1)); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	err := s.Store(ctx, testRecord(1))
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) || storageErr.Operation != "store" {
		t.Errorf("duplicate Store() = %v, want StorageError", err)
	}
}

func TestStorage_Filters(t *testing.T) {
	start := baseTime.Add(3 * time.Minute)
	end := baseTime.Add(6 * time.Minute)

	tests := []struct {
		name  string
		query evidence.Query
		want  int64
	}{
		{"all", evidence.Query{}, 10},
		{"session", evidence.Query{SessionID: "session-1"}, 5},
		{"outcome", evidence.Query{Outcome: evidence.OutcomeFailed}, 3},
		{"request id", evidence.Query{RequestID: "req-04"}, 1},
		{"backend miss", evidence.Query{Backend: "placeholder"}, 0},
		{"model", evidence.Query{Model: "grok-2-latest"}, 10},
		{"time range inclusive", evidence.Query{StartTime: &start, EndTime: &end}, 4},
		{"combined", evidence.Query{SessionID: "session-0", Outcome: evidence.OutcomeCompleted}, 3},
	}

	for name, s := range backends(t) {
		seed(t, s, 10)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				count, err := s.Count(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Count() failed: %v", err)
				}
				if count != tt.want {
					t.Errorf("Count() = %d, want %d", count, tt.want)
				}

				results, err := s.Query(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Query() failed: %v", err)
				}
				if int64(len(results)) != tt.want {
					t.Errorf("Query() returned %d, want %d", len(results), tt.want)
				}
			})
		}
	}
}

func TestStorage_SortAndPaginate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s, 10)
			ctx := context.Background()

			// Default order is newest first.
			results, err := s.Query(ctx, &evidence.Query{Limit: 3})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if ids := recordIDs(results); fmt.Sprint(ids) != "[rec-09 rec-08 rec-07]" {
				t.Errorf("default order = %v", ids)
			}

			results, err = s.Query(ctx, &evidence.Query{SortBy: "tokens_sent", SortOrder: "asc", Limit: 2, Offset: 1})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if ids := recordIDs(results); fmt.Sprint(ids) != "[rec-01 rec-02]" {
				t.Errorf("tokens asc page = %v", ids)
			}

			// Offset without limit returns the rest.
			results, err = s.Query(ctx, &evidence.Query{SortOrder: "asc", Offset: 8})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if ids := recordIDs(results); fmt.Sprint(ids) != "[rec-08 rec-09]" {
				t.Errorf("offset only = %v", ids)
			}

			results, err = s.Query(ctx, &evidence.Query{Offset: 50})
			if err != nil || len(results) != 0 {
				t.Errorf("offset past end = %d records, %v", len(results), err)
			}
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s, 10)
			ctx := context.Background()

			cutoff := baseTime.Add(4 * time.Minute)
			deleted, err := s.Delete(ctx, &evidence.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if deleted != 5 {
				t.Errorf("deleted %d, want 5", deleted)
			}

			remaining, _ := s.Count(ctx, &evidence.Query{})
			if remaining != 5 {
				t.Errorf("remaining = %d, want 5", remaining)
			}
		})
	}
}

func TestStorage_ConcurrentStore(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- s.Store(context.Background(), testRecord(i))
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Errorf("concurrent Store() failed: %v", err)
				}
			}
			if count, _ := s.Count(context.Background(), &evidence.Query{}); count != 20 {
				t.Errorf("count = %d, want 20", count)
			}
		})
	}
}

func TestSQLiteStorage_Initialize(t *testing.T) {
	s, dbPath := createTempDB(t)

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "evidence.db")
	cfg := config.SQLiteConfig{Path: dbPath}

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	seed(t, s, 3)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if count, _ := s.Count(context.Background(), &evidence.Query{}); count != 3 {
		t.Errorf("records after reopen = %d, want 3", count)
	}
}

func TestSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(config.SQLiteConfig{})
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func TestNew(t *testing.T) {
	mem, err := New(config.EvidenceConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("New(memory) failed: %v", err)
	}
	if _, ok := mem.(*MemoryStorage); !ok {
		t.Errorf("New(memory) = %T", mem)
	}

	sqlite, err := New(config.EvidenceConfig{
		Backend: "sqlite",
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "e.db")},
	})
	if err != nil {
		t.Fatalf("New(sqlite) failed: %v", err)
	}
	defer sqlite.Close()
	if _, ok := sqlite.(*SQLiteStorage); !ok {
		t.Errorf("New(sqlite) = %T", sqlite)
	}

	if _, err := New(config.EvidenceConfig{Backend: "postgres"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
}

func recordIDs(records []*evidence.RelayRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
