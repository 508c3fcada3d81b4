package testsupport

import (
	"context"
	"testing"

	"popquiz/internal/config"
	"popquiz/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewArtifact inserts a pending ledger item for tests using the provided store.
func NewArtifact(t testing.TB, store *ledger.Store, round, question int, kind ledger.ArtifactKind) *ledger.Item {
	t.Helper()

	item, err := store.Upsert(context.Background(), round, question, kind)
	if err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return item
}
