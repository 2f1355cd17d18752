package workflow

import (
	"context"
	"fmt"
	"time"

	"tunescan/internal/notifications"
	"tunescan/internal/ocr"
	"tunescan/internal/queue"
	"tunescan/internal/tagging"
)

type imageScanner interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

type matchFinder interface {
	FindBestMatch(ctx context.Context, raw string) (*queue.Match, error)
}

type audioDownloader interface {
	FileSize(ctx context.Context, videoID string) int64
	Download(ctx context.Context, videoID, baseName string) (string, error)
}

type trackTagger interface {
	Apply(ctx context.Context, path string, meta tagging.Meta) error
}

// Summary counts what a run did.
type Summary struct {
	ImagesScanned int
	ImagesFailed  int
	TracksAdded   int
	Matched       int
	NotFound      int
	Duplicates    int
	Downloaded    int
	Skipped       int
	Failed        int
	Duration      time.Duration
}

// Add merges another phase's counts into s.
func (s *Summary) Add(other Summary) {
	s.ImagesScanned += other.ImagesScanned
	s.ImagesFailed += other.ImagesFailed
	s.TracksAdded += other.TracksAdded
	s.Matched += other.Matched
	s.NotFound += other.NotFound
	s.Duplicates += other.Duplicates
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Report converts the summary into a notification payload.
func (s Summary) Report() notifications.RunReport {
	return notifications.RunReport{
		ImagesScanned: s.ImagesScanned,
		TracksAdded:   s.TracksAdded,
		Matched:       s.Matched,
		NotFound:      s.NotFound,
		Duplicates:    s.Duplicates,
		Downloaded:    s.Downloaded,
		Skipped:       s.Skipped,
		Failed:        s.Failed,
		Duration:      s.Duration,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"images=%d tracks_added=%d matched=%d not_found=%d duplicates=%d downloaded=%d skipped=%d failed=%d",
		s.ImagesScanned, s.TracksAdded, s.Matched, s.NotFound, s.Duplicates, s.Downloaded, s.Skipped, s.Failed,
	)
}
