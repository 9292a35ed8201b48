package testsupport

import (
	"context"
	"testing"

	"mixtape/internal/catalog"
	"mixtape/internal/config"
	"mixtape/internal/logging"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddTrack inserts a track for tests using the provided store.
func AddTrack(t testing.TB, store *catalog.Store, title, artist string, raw RawTrack) *catalog.Track {
	t.Helper()

	track, err := store.AddTrack(context.Background(), catalog.PriorityInteractive, title, artist, raw.Features())
	if err != nil {
		t.Fatalf("store.AddTrack: %v", err)
	}
	return track
}
