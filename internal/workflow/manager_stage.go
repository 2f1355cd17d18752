package workflow

import (
	"context"
	"fmt"

	"tunescan/internal/logging"
	"tunescan/internal/queue"
	"tunescan/internal/stage"
	"tunescan/internal/stageexec"
)

func (m *Manager) searchHandler() *searchStage {
	return &searchStage{store: m.store, finder: m.finder, logger: m.logger}
}

func (m *Manager) downloadHandler() *downloadStage {
	return &downloadStage{
		store:       m.store,
		downloader:  m.downloader,
		tagger:      m.tagger,
		gate:        m.sizeGate(),
		maxAttempts: m.cfg.Download.MaxAttempts,
		ffmpeg:      m.cfg.Download.FFmpegBinary,
		logger:      m.logger,
	}
}

// search resolves every pending track.
func (m *Manager) search(ctx context.Context) (Summary, error) {
	tracks, err := m.store.PendingTracks(ctx)
	if err != nil {
		return Summary{}, err
	}
	return m.runStage(ctx, tracks, stageexec.Options{
		Handler:    m.searchHandler(),
		StageName:  "search",
		Processing: queue.StatusSearching,
		Rollback:   queue.StatusPending,
	})
}

// download fetches every found track.
func (m *Manager) download(ctx context.Context) (Summary, error) {
	tracks, err := m.store.TracksToDownload(ctx)
	if err != nil {
		return Summary{}, err
	}
	return m.runStage(ctx, tracks, stageexec.Options{
		Handler:    m.downloadHandler(),
		StageName:  "download",
		Processing: queue.StatusDownloading,
		Rollback:   queue.StatusFound,
	})
}

// runStage executes a stage sequentially over tracks. Per-track failures are
// counted and persisted by stageexec; only cancellation stops the loop.
func (m *Manager) runStage(ctx context.Context, tracks []*queue.Track, base stageexec.Options) (Summary, error) {
	var summary Summary
	if len(tracks) == 0 {
		return summary, nil
	}
	logging.WithContext(ctx, m.logger).Info("stage batch started",
		logging.String(logging.FieldStage, base.StageName),
		logging.Int("tracks", len(tracks)),
	)
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		opts := base
		opts.Logger = m.logger
		opts.Store = m.store
		opts.Notifier = m.notifier
		opts.Track = track

		outcome, err := stageexec.Run(ctx, opts)
		if err != nil && ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if outcome == "" && err != nil {
			return summary, fmt.Errorf("%s track %d (%d/%d): %w", base.StageName, track.ID, i+1, len(tracks), err)
		}
		summary.count(base.StageName, outcome)
	}
	return summary, nil
}

func (s *Summary) count(stageName string, outcome stage.Outcome) {
	switch outcome {
	case stage.OutcomeDone:
		if stageName == "search" {
			s.Matched++
		} else {
			s.Downloaded++
		}
	case stage.OutcomeNotFound:
		s.NotFound++
	case stage.OutcomeDuplicate:
		s.Duplicates++
	case stage.OutcomeSkipped:
		s.Skipped++
	case stage.OutcomeFailed, stage.OutcomeRetry:
		s.Failed++
	}
}
