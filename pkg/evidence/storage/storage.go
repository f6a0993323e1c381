package storage

import (
	"fmt"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
)

// New opens the backend selected by cfg.Backend.
func New(cfg config.EvidenceConfig) (evidence.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		return NewSQLiteStorage(cfg.SQLite)
	default:
		return nil, evidence.NewStorageError(cfg.Backend, "open",
			fmt.Errorf("unsupported evidence backend %q", cfg.Backend))
	}
}
