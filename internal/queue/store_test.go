package queue_test

import (
	"context"
	"errors"
	"testing"

	"tunescan/internal/queue"
	"tunescan/internal/testsupport"
)

func TestAddRawTrackDeduplicatesRawText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	added, err := store.AddRawTrack(ctx, "  Shayea Man Delam Nemikhast  ", "shot1.png")
	if err != nil {
		t.Fatalf("AddRawTrack failed: %v", err)
	}
	if !added {
		t.Fatal("expected first insert to be added")
	}
	added, err = store.AddRawTrack(ctx, "Shayea Man Delam Nemikhast", "shot2.png")
	if err != nil {
		t.Fatalf("AddRawTrack duplicate returned error: %v", err)
	}
	if added {
		t.Fatal("expected duplicate raw text to be ignored")
	}

	pending, err := store.PendingTracks(ctx)
	if err != nil {
		t.Fatalf("PendingTracks failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending track, got %d", len(pending))
	}
	track := pending[0]
	if track.RawText != "Shayea Man Delam Nemikhast" || track.Status != queue.StatusPending {
		t.Fatalf("unexpected track: %#v", track)
	}
	if track.SourceImage != "shot1.png" {
		t.Fatalf("expected first source image kept, got %q", track.SourceImage)
	}
	if track.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}

	if _, err := store.AddRawTrack(ctx, "   ", ""); err == nil {
		t.Fatal("expected error for blank raw text")
	}
}

func TestApplyMatchStoresMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track := testsupport.NewTrack(t, store, "New Order Blue Monday")
	result, err := store.ApplyMatch(ctx, track.ID, queue.Match{
		VideoID:    "abc123",
		Title:      "Blue Monday",
		Artist:     "New Order",
		Album:      "Power, Corruption & Lies",
		CoverURL:   "https://img.example/cover.jpg",
		Duration:   "7:29",
		ResultType: queue.ResultSong,
		Score:      0.91,
	})
	if err != nil {
		t.Fatalf("ApplyMatch failed: %v", err)
	}
	if result.Duplicate {
		t.Fatal("did not expect duplicate")
	}

	updated, err := store.GetByID(ctx, track.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusFound {
		t.Fatalf("expected found, got %s", updated.Status)
	}
	if updated.SongName != "Blue Monday" || updated.ArtistName != "New Order" || updated.VideoID != "abc123" {
		t.Fatalf("unexpected metadata: %#v", updated)
	}
	if updated.Label() != "New Order - Blue Monday" {
		t.Fatalf("unexpected label %q", updated.Label())
	}
	if updated.WatchURL() != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected watch url %q", updated.WatchURL())
	}

	toDownload, err := store.TracksToDownload(ctx)
	if err != nil {
		t.Fatalf("TracksToDownload failed: %v", err)
	}
	if len(toDownload) != 1 || toDownload[0].ID != track.ID {
		t.Fatalf("expected matched track to be downloadable, got %#v", toDownload)
	}
}

func TestApplyMatchDeletesDuplicateVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewFoundTrack(t, store, "Blue Monday New Order", queue.Match{VideoID: "vid-1", Title: "Blue Monday", Artist: "New Order"})
	second := testsupport.NewTrack(t, store, "New Order - Blue Monday")

	result, err := store.ApplyMatch(ctx, second.ID, queue.Match{VideoID: "vid-1", Title: "Blue Monday", Artist: "New Order"})
	if err != nil {
		t.Fatalf("ApplyMatch failed: %v", err)
	}
	if !result.Duplicate || result.ExistingID != first.ID {
		t.Fatalf("expected duplicate of %d, got %#v", first.ID, result)
	}
	gone, err := store.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected duplicate row to be deleted, got %#v", gone)
	}
	holder, err := store.FindByVideoID(ctx, "vid-1")
	if err != nil {
		t.Fatalf("FindByVideoID failed: %v", err)
	}
	if holder == nil || holder.ID != first.ID {
		t.Fatalf("expected original holder, got %#v", holder)
	}
}

func TestApplyMatchRequiresVideoID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	track := testsupport.NewTrack(t, store, "Some Song")
	if _, err := store.ApplyMatch(context.Background(), track.ID, queue.Match{Title: "x"}); err == nil {
		t.Fatal("expected error for empty video id")
	}
}

func TestMarkNotFoundAndRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track := testsupport.NewTrack(t, store, "zzqx unreadable")
	if err := store.MarkNotFound(ctx, track.ID, "no song or video result"); err != nil {
		t.Fatalf("MarkNotFound failed: %v", err)
	}
	pending, err := store.PendingTracks(ctx)
	if err != nil {
		t.Fatalf("PendingTracks failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending tracks, got %d", len(pending))
	}

	moved, err := store.RetryNotFound(ctx)
	if err != nil {
		t.Fatalf("RetryNotFound failed: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected one track retried, got %d", moved)
	}
	updated, _ := store.GetByID(ctx, track.ID)
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}
}

func TestMarkDownloadedRequiresPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track := testsupport.NewFoundTrack(t, store, "Song A", queue.Match{VideoID: "v-a", Title: "A", Artist: "X"})
	if err := store.MarkDownloaded(ctx, track.ID, ""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := store.MarkDownloaded(ctx, track.ID, "/music/X - A.mp3"); err != nil {
		t.Fatalf("MarkDownloaded failed: %v", err)
	}
	updated, _ := store.GetByID(ctx, track.ID)
	if updated.Status != queue.StatusDownloaded || updated.FilePath != "/music/X - A.mp3" {
		t.Fatalf("unexpected track after download: %#v", updated)
	}

	updated.FilePath = ""
	if err := store.Update(ctx, updated); err == nil {
		t.Fatal("expected Update to reject downloaded track without path")
	}
}

func TestRecordDownloadFailureCapsAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track := testsupport.NewFoundTrack(t, store, "Song B", queue.Match{VideoID: "v-b", Title: "B", Artist: "Y"})
	status, err := store.RecordDownloadFailure(ctx, track.ID, "ffmpeg exited 1", 2)
	if err != nil {
		t.Fatalf("RecordDownloadFailure failed: %v", err)
	}
	if status != queue.StatusFound {
		t.Fatalf("expected found after first failure, got %s", status)
	}
	status, err = store.RecordDownloadFailure(ctx, track.ID, "ffmpeg exited 1", 2)
	if err != nil {
		t.Fatalf("RecordDownloadFailure failed: %v", err)
	}
	if status != queue.StatusFailed {
		t.Fatalf("expected failed after second failure, got %s", status)
	}
	updated, _ := store.GetByID(ctx, track.ID)
	if updated.Attempts != 2 || updated.ErrorMessage != "ffmpeg exited 1" {
		t.Fatalf("unexpected failure bookkeeping: %#v", updated)
	}

	if _, err := store.RetryFailed(ctx, track.ID); err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	updated, _ = store.GetByID(ctx, track.ID)
	if updated.Status != queue.StatusFound || updated.Attempts != 0 || updated.ErrorMessage != "" {
		t.Fatalf("expected reset track, got %#v", updated)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		raw      string
		status   queue.Status
		expected queue.Status
	}{
		{"searching one", queue.StatusSearching, queue.StatusPending},
		{"downloading one", queue.StatusDownloading, queue.StatusFound},
		{"found one", queue.StatusFound, queue.StatusFound},
	}
	ids := make([]int64, len(cases))
	for i, tc := range cases {
		track := testsupport.NewTrack(t, store, tc.raw)
		track.Status = tc.status
		if err := store.Update(ctx, track); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids[i] = track.ID
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != 2 {
		t.Fatalf("expected 2 tracks reset, got %d", reset)
	}
	for i, tc := range cases {
		track, _ := store.GetByID(ctx, ids[i])
		if track.Status != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.raw, tc.expected, track.Status)
		}
	}
}

func TestImageLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	processed, err := store.IsImageProcessed(ctx, "shot.png")
	if err != nil {
		t.Fatalf("IsImageProcessed failed: %v", err)
	}
	if processed {
		t.Fatal("expected image to be unprocessed")
	}
	logged, err := store.LogImage(ctx, "shot.png", "Song A Artist A ", 1)
	if err != nil || !logged {
		t.Fatalf("LogImage failed: logged=%v err=%v", logged, err)
	}
	logged, err = store.LogImage(ctx, "shot.png", "again", 0)
	if err != nil {
		t.Fatalf("LogImage duplicate returned error: %v", err)
	}
	if logged {
		t.Fatal("expected duplicate image log to be ignored")
	}
	processed, _ = store.IsImageProcessed(ctx, "shot.png")
	if !processed {
		t.Fatal("expected image to be processed")
	}

	images, err := store.Images(ctx)
	if err != nil {
		t.Fatalf("Images failed: %v", err)
	}
	if len(images) != 1 || images[0].FullText != "Song A Artist A " || images[0].TrackCount != 1 {
		t.Fatalf("unexpected images: %#v", images)
	}

	names, err := store.ProcessedImages(ctx)
	if err != nil {
		t.Fatalf("ProcessedImages failed: %v", err)
	}
	if _, ok := names["shot.png"]; !ok {
		t.Fatalf("expected shot.png in %v", names)
	}

	forgot, err := store.ForgetImage(ctx, "shot.png")
	if err != nil || !forgot {
		t.Fatalf("ForgetImage failed: forgot=%v err=%v", forgot, err)
	}
	processed, _ = store.IsImageProcessed(ctx, "shot.png")
	if processed {
		t.Fatal("expected image to be forgotten")
	}
}

func TestHealthAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTrack(t, store, "pending one")
	testsupport.NewFoundTrack(t, store, "found one", queue.Match{VideoID: "v-1", Title: "One"})
	nf := testsupport.NewTrack(t, store, "lost one")
	if err := store.MarkNotFound(ctx, nf.ID, ""); err != nil {
		t.Fatalf("MarkNotFound failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Found != 1 || health.NotFound != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}

	cleared, err := store.ClearStatus(ctx, queue.StatusNotFound)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearStatus: cleared=%d err=%v", cleared, err)
	}
	cleared, err = store.Clear(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("Clear: cleared=%d err=%v", cleared, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if _, err := store.ExecForTest(context.Background(), "PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	store.Close()

	_, err := queue.Open(cfg)
	if !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Not-Found "); !ok || status != queue.StatusNotFound {
		t.Fatalf("unexpected parse result: %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestClearIsAllOrNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTrack(t, store, "Daft Punk - One More Time")
	if _, err := store.LogImage(ctx, "shot.png", "Daft Punk - One More Time", 1); err != nil {
		t.Fatalf("LogImage failed: %v", err)
	}
	if _, err := store.ExecForTest(ctx,
		`CREATE TRIGGER keep_images BEFORE DELETE ON images BEGIN SELECT RAISE(ABORT, 'images are pinned'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := store.Clear(ctx); err == nil {
		t.Fatal("expected Clear to fail when images cannot be deleted")
	}
	tracks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected track deletion rolled back, got %d tracks", len(tracks))
	}
	if processed, err := store.IsImageProcessed(ctx, "shot.png"); err != nil || !processed {
		t.Fatalf("expected image kept: processed=%v err=%v", processed, err)
	}
}
