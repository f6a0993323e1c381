package retention

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
	"grokgate/pkg/evidence/storage"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestPruner(store evidence.Storage, cfg *Config) *Pruner {
	p := NewPruner(store, cfg)
	p.now = func() time.Time { return fixedNow }
	return p
}

func storeAged(t *testing.T, store evidence.Storage, prefix string, n int, age time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := &evidence.RelayRecord{
			ID:          fmt.Sprintf("%s-%d", prefix, i),
			RequestID:   fmt.Sprintf("req-%s-%d", prefix, i),
			Outcome:     evidence.OutcomeCompleted,
			RequestTime: fixedNow.Add(-age - time.Duration(i)*time.Minute),
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestPruner_PruneByAge(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, "old", 5, 40*24*time.Hour)
	storeAged(t, store, "new", 3, time.Hour)

	pruner := newTestPruner(store, &Config{RetentionDays: 30})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}
	if store.Size() != 3 {
		t.Errorf("remaining = %d, want 3", store.Size())
	}
}

func TestPruner_ZeroRetentionKeepsEverything(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, "old", 4, 400*24*time.Hour)

	pruner := newTestPruner(store, &Config{RetentionDays: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 || store.Size() != 4 {
		t.Errorf("deleted = %d, remaining = %d; want 0 and 4", deleted, store.Size())
	}
}

func TestPruner_PruneByCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, "rec", 10, time.Hour)

	pruner := newTestPruner(store, &Config{MaxRecords: 4})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 6 {
		t.Errorf("deleted = %d, want 6", deleted)
	}

	// The four newest survive: rec-0 .. rec-3.
	remaining, err := store.Query(context.Background(), &evidence.Query{SortBy: "request_time", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(remaining) != 4 {
		t.Fatalf("remaining = %d, want 4", len(remaining))
	}
	for i, rec := range remaining {
		if want := fmt.Sprintf("rec-%d", i); rec.ID != want {
			t.Errorf("remaining[%d] = %s, want %s", i, rec.ID, want)
		}
	}
}

func TestPruner_CountWithinLimit(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, "rec", 3, time.Hour)

	pruner := newTestPruner(store, &Config{MaxRecords: 10})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestPruner_AgeThenCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, "old", 3, 60*24*time.Hour)
	storeAged(t, store, "new", 5, time.Hour)

	pruner := newTestPruner(store, &Config{RetentionDays: 30, MaxRecords: 2})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 6 {
		t.Errorf("deleted = %d, want 6", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("remaining = %d, want 2", store.Size())
	}
}

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Delete(context.Context, *evidence.Query) (int64, error) {
	return 0, errors.New("disk full")
}

func TestPruner_StorageError(t *testing.T) {
	store := failingStorage{storage.NewMemoryStorage()}
	pruner := newTestPruner(store, &Config{RetentionDays: 30})

	_, err := pruner.Prune(context.Background())
	if err == nil {
		t.Fatal("Prune() should fail when storage fails")
	}

	var retErr *evidence.RetentionError
	if !errors.As(err, &retErr) {
		t.Fatalf("error = %T, want *evidence.RetentionError", err)
	}
	if retErr.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", retErr.RetentionDays)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.RetentionConfig{
		Days:          7,
		MaxRecords:    1000,
		PruneSchedule: "0 */6 * * *",
	})

	if cfg.RetentionDays != 7 || cfg.MaxRecords != 1000 || cfg.PruneSchedule != "0 */6 * * *" {
		t.Errorf("ConfigFrom() = %+v", cfg)
	}
}

func TestNewPruner_DefaultConfig(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), nil)

	if pruner.config.RetentionDays != config.DefaultEvidenceRetentionDays {
		t.Errorf("RetentionDays = %d, want %d", pruner.config.RetentionDays, config.DefaultEvidenceRetentionDays)
	}
	if pruner.config.PruneSchedule != config.DefaultEvidencePruneSchedule {
		t.Errorf("PruneSchedule = %q, want %q", pruner.config.PruneSchedule, config.DefaultEvidencePruneSchedule)
	}
	if pruner.NextPruning() != nil {
		t.Error("NextPruning() should be nil before Start")
	}
}
