package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewAsset inserts a pending asset for tests using the provided store.
func NewAsset(t testing.TB, st *store.Store, id, title, sourcePath string) *store.Asset {
	t.Helper()

	asset := &store.Asset{
		ID:         id,
		Title:      title,
		SourcePath: sourcePath,
		Status:     store.StatusPending,
	}
	if err := st.InsertAsset(context.Background(), asset); err != nil {
		t.Fatalf("store.InsertAsset: %v", err)
	}
	got, err := st.GetAsset(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetAsset: %v", err)
	}
	return got
}
