package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tunescan/internal/ocr"
	"tunescan/internal/queue"
)

func TestWatchRunsPipelineForNewImages(t *testing.T) {
	h := newHarness(t)
	h.cfg.Workflow.WatchDebounceSeconds = 1
	h.scanner.results["fresh.png"] = ocr.Result{Lines: []string{"Coldplay - Yellow"}}
	h.finder.matches["Coldplay - Yellow"] = yellow

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.manager().Watch(ctx) }()

	deadline := time.Now().Add(10 * time.Second)
	for h.notifier.reportCount() == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("initial run did not complete")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := os.WriteFile(filepath.Join(h.cfg.Paths.InputDir, "fresh.png"), []byte("image"), 0o644); err != nil {
		cancel()
		t.Fatalf("write image: %v", err)
	}

	var track *queue.Track
	for {
		tracks, err := h.store.List(context.Background(), queue.StatusDownloaded)
		if err != nil {
			cancel()
			t.Fatalf("List: %v", err)
		}
		if len(tracks) == 1 {
			track = tracks[0]
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("watch did not process the new image")
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
	if track.SourceImage != "fresh.png" {
		t.Fatalf("source image = %q", track.SourceImage)
	}
}
