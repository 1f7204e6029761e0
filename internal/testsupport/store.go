package testsupport

import (
	"testing"

	"bridgit/internal/config"
	"bridgit/internal/resultstore"
)

// MustOpenStore opens a resultstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...resultstore.Option) *resultstore.Store {
	t.Helper()

	store, err := resultstore.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("resultstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
