package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tunescan/internal/logging"
	"tunescan/internal/notifications"
	"tunescan/internal/queue"
	"tunescan/internal/services"
	"tunescan/internal/stage"
)

// Options controls stage execution and queue persistence behavior.
type Options struct {
	Logger    *slog.Logger
	Store     *queue.Store
	Notifier  notifications.Service
	Handler   stage.Handler
	StageName string
	// Processing is persisted before Execute runs; Rollback is restored when
	// the run is cancelled mid-stage.
	Processing queue.Status
	Rollback   queue.Status
	Track      *queue.Track
}

// Run executes one stage against one track and applies the queue transition
// semantics shared by the search and download phases.
func Run(ctx context.Context, opts Options) (stage.Outcome, error) {
	if opts.Handler == nil {
		return "", fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return "", errors.New("queue store is required")
	}
	if opts.Track == nil {
		return "", errors.New("track is required")
	}
	track := opts.Track

	stageCtx := services.WithStage(services.WithItemID(ctx, track.ID), opts.StageName)
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stageLogger := logging.WithContext(stageCtx, logger)

	start := time.Now()
	stageLogger.Debug(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("track", track.Label()),
	)

	if opts.Processing != "" {
		track.Status = opts.Processing
		track.ErrorMessage = ""
		if err := opts.Store.Update(stageCtx, track); err != nil {
			return "", fmt.Errorf("persist processing transition: %w", err)
		}
	}

	outcome, execErr := opts.Handler.Execute(stageCtx, track)
	if execErr != nil {
		if ctx.Err() != nil {
			rollback(stageCtx, stageLogger, opts)
			return "", execErr
		}
		return handleFailure(stageCtx, stageLogger, opts, execErr)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("outcome", string(outcome)),
		logging.String("track", track.Label()),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return outcome, nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) (stage.Outcome, error) {
	status, err := opts.Handler.Fail(ctx, opts.Track, stageErr)
	if err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
		return stage.OutcomeFailed, errors.Join(stageErr, err)
	}
	opts.Track.Status = status

	outcome := stage.OutcomeRetry
	switch status {
	case queue.StatusFailed:
		outcome = stage.OutcomeFailed
	case queue.StatusNotFound:
		outcome = stage.OutcomeNotFound
	}

	logging.WarnWithContext(logger, "stage failed", "stage_failure",
		logging.String("resolved_status", string(status)),
		logging.String("track", opts.Track.Label()),
		logging.String(logging.FieldErrorHint, hintFor(stageErr)),
		logging.Error(stageErr),
	)

	if outcome == stage.OutcomeFailed && opts.Notifier != nil {
		if err := opts.Notifier.NotifyTrackFailed(ctx, opts.Track.Label(), stageErr); err != nil {
			logger.Debug("track failure notification failed", logging.Error(err))
		}
	}
	return outcome, stageErr
}

func rollback(ctx context.Context, logger *slog.Logger, opts Options) {
	if opts.Rollback == "" {
		return
	}
	opts.Track.Status = opts.Rollback
	opts.Track.ProgressMessage = "Interrupted"
	if err := opts.Store.Update(context.WithoutCancel(ctx), opts.Track); err != nil {
		logger.Warn("failed to roll back interrupted track", logging.Error(err))
		return
	}
	logger.Debug("stage interrupted by shutdown", logging.String("rollback_status", string(opts.Rollback)))
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrExternalTool):
		return "check that the external tool is installed and on PATH"
	case errors.Is(err, services.ErrConfiguration):
		return "review the configuration file"
	case errors.Is(err, services.ErrTimeout):
		return "raise the timeout or check network connectivity"
	case errors.Is(err, services.ErrValidation):
		return "inspect the track; retrying will not help"
	default:
		return "the track will be retried on the next run"
	}
}
