package testsupport

import (
	"context"
	"testing"

	"mediadex/internal/config"
	"mediadex/internal/index"
	"mediadex/internal/records"
)

// MustOpenStore opens the configured index for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) index.Store {
	t.Helper()

	store, err := index.Open(cfg)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MemoryStore opens an in-memory bleve index and registers cleanup.
func MemoryStore(t testing.TB) index.Store {
	t.Helper()

	store, err := index.OpenBleveMem()
	if err != nil {
		t.Fatalf("index.OpenBleveMem: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveRecord writes rec to store, failing the test on error.
func SaveRecord(t testing.TB, store index.Store, rec *records.Record) {
	t.Helper()

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("store.Save %s: %v", rec.Path(), err)
	}
}
