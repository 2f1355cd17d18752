package workflow

import (
	"context"
	"log/slog"
	"os/exec"

	"tunescan/internal/download"
	"tunescan/internal/logging"
	"tunescan/internal/queue"
	"tunescan/internal/services"
	"tunescan/internal/stage"
	"tunescan/internal/tagging"
	"tunescan/internal/textutil"
)

// downloadStage fetches, transcodes, and tags a found track.
type downloadStage struct {
	store       *queue.Store
	downloader  audioDownloader
	tagger      trackTagger
	gate        download.SizeGate
	maxAttempts int
	ffmpeg      string
	logger      *slog.Logger
}

func (s *downloadStage) Execute(ctx context.Context, track *queue.Track) (stage.Outcome, error) {
	logger := logging.WithContext(ctx, s.logger)
	label := track.Label()

	if s.gate.Threshold > 0 {
		size := s.downloader.FileSize(ctx, track.VideoID)
		ok, err := s.gate.Allow(ctx, label, size)
		if err != nil {
			return "", err
		}
		if !ok {
			track.Status = queue.StatusFound
			track.ProgressMessage = "Skipped: large download declined"
			if err := s.store.Update(ctx, track); err != nil {
				return "", err
			}
			logger.Info("large download skipped",
				logging.String("track", label),
				logging.Int64("size_bytes", size),
				logging.String(logging.FieldEventType, "download_declined"),
			)
			return stage.OutcomeSkipped, nil
		}
	}

	base := textutil.TrackFileName(track.ArtistName, track.SongName)
	if base == "" {
		base = textutil.SanitizeFileName(track.RawText)
	}
	path, err := s.downloader.Download(ctx, track.VideoID, base)
	if err != nil {
		return "", err
	}

	meta := tagging.Meta{
		Title:    track.SongName,
		Artist:   track.ArtistName,
		Album:    track.Album,
		CoverURL: track.CoverURL,
	}
	if err := s.tagger.Apply(ctx, path, meta); err != nil {
		logging.WarnWithContext(logger, "tagging failed", "tagging_failed",
			logging.String("file", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "mp3 kept without tags"),
		)
	}

	if err := s.store.MarkDownloaded(ctx, track.ID, path); err != nil {
		return "", err
	}
	track.Status = queue.StatusDownloaded
	track.FilePath = path
	return stage.OutcomeDone, nil
}

// Fail counts the attempt. Errors that cannot succeed on retry use up the
// whole budget at once.
func (s *downloadStage) Fail(ctx context.Context, track *queue.Track, err error) (queue.Status, error) {
	attempts := s.maxAttempts
	if services.FailureStatus(err, queue.StatusFound) == queue.StatusFailed {
		attempts = 1
	}
	return s.store.RecordDownloadFailure(ctx, track.ID, err.Error(), attempts)
}

func (s *downloadStage) HealthCheck(context.Context) stage.Health {
	if s.ffmpeg == "" {
		return stage.Unhealthy("download", "ffmpeg binary not configured")
	}
	_, err := exec.LookPath(s.ffmpeg)
	return stage.FromError("download", err)
}
