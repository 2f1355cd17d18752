package testsupport

import (
	"context"
	"testing"

	"tunescan/internal/config"
	"tunescan/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTrack inserts a pending track and returns it.
func NewTrack(t testing.TB, store *queue.Store, rawText string) *queue.Track {
	t.Helper()

	ctx := context.Background()
	if _, err := store.AddRawTrack(ctx, rawText, ""); err != nil {
		t.Fatalf("store.AddRawTrack: %v", err)
	}
	tracks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	for _, track := range tracks {
		if track.RawText == rawText {
			return track
		}
	}
	t.Fatalf("track %q not stored", rawText)
	return nil
}

// NewFoundTrack inserts a track and applies a match so it is ready to download.
func NewFoundTrack(t testing.TB, store *queue.Store, rawText string, match queue.Match) *queue.Track {
	t.Helper()

	track := NewTrack(t, store, rawText)
	if _, err := store.ApplyMatch(context.Background(), track.ID, match); err != nil {
		t.Fatalf("store.ApplyMatch: %v", err)
	}
	updated, err := store.GetByID(context.Background(), track.ID)
	if err != nil || updated == nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	return updated
}
