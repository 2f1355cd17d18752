package workflow

import (
	"context"
	"log/slog"

	"tunescan/internal/logging"
	"tunescan/internal/queue"
	"tunescan/internal/stage"
)

// searchStage resolves a pending track against the catalog.
type searchStage struct {
	store  *queue.Store
	finder matchFinder
	logger *slog.Logger
}

func (s *searchStage) Execute(ctx context.Context, track *queue.Track) (stage.Outcome, error) {
	match, err := s.finder.FindBestMatch(ctx, track.RawText)
	if err != nil {
		return "", err
	}
	if match == nil {
		if err := s.store.MarkNotFound(ctx, track.ID, "No match found"); err != nil {
			return "", err
		}
		track.Status = queue.StatusNotFound
		return stage.OutcomeNotFound, nil
	}

	result, err := s.store.ApplyMatch(ctx, track.ID, *match)
	if err != nil {
		return "", err
	}
	if result.Duplicate {
		logging.WithContext(ctx, s.logger).Info("match already queued; dropping duplicate",
			logging.String("raw_text", track.RawText),
			logging.String("video_id", match.VideoID),
			logging.Int64("existing_id", result.ExistingID),
			logging.String(logging.FieldEventType, "duplicate_match"),
		)
		return stage.OutcomeDuplicate, nil
	}

	track.Status = queue.StatusFound
	track.SongName = match.Title
	track.ArtistName = match.Artist
	track.Album = match.Album
	track.VideoID = match.VideoID
	track.CoverURL = match.CoverURL
	track.Duration = match.Duration
	track.ResultType = match.ResultType
	track.MatchScore = match.Score
	return stage.OutcomeDone, nil
}

// Fail parks the track as not found; search errors are not retried
// automatically.
func (s *searchStage) Fail(ctx context.Context, track *queue.Track, err error) (queue.Status, error) {
	if markErr := s.store.MarkNotFound(ctx, track.ID, "Search failed: "+err.Error()); markErr != nil {
		return "", markErr
	}
	return queue.StatusNotFound, nil
}

func (s *searchStage) HealthCheck(context.Context) stage.Health {
	if s.finder == nil {
		return stage.Unhealthy("search", "catalog search not configured")
	}
	return stage.Healthy("search")
}
