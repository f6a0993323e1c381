// Package storage provides storage backends for relay records.
//
// # Storage Backends
//
//   - SQLite: durable storage on a single file (evidence.backend=sqlite)
//   - Memory: in-process storage, lost on restart (evidence.backend=memory)
//
// # SQLite Backend
//
// The SQLite backend uses the pure-Go modernc driver, so the binary needs no
// CGO. Every pooled connection gets WAL journaling, synchronous=NORMAL and the
// configured busy timeout through the DSN. Times are stored as Unix
// nanoseconds, which keeps range filters and ordering plain integer
// comparisons.
//
// # Basic Usage
//
//	store, err := storage.New(cfg.Evidence)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	records, err := store.Query(ctx, &evidence.Query{
//	    SessionID: "abc",
//	    Limit:     20,
//	})
package storage
