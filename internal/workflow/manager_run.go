package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tunescan/internal/logging"
	"tunescan/internal/services"
)

// ErrLocked is returned when another process holds the run lock.
var ErrLocked = errors.New("another tunescan run is in progress")

// Run executes scan, search, and download in order under the run lock and
// sends a completion notification.
func (m *Manager) Run(ctx context.Context) (Summary, error) {
	return m.locked(ctx, "run", func(ctx context.Context) (Summary, error) {
		var total Summary
		phases := []func(context.Context) (Summary, error){m.scan, m.search, m.download}
		for _, phase := range phases {
			summary, err := phase(ctx)
			total.Add(summary)
			if err != nil {
				return total, err
			}
		}
		return total, nil
	})
}

// RunScan executes only the OCR phase.
func (m *Manager) RunScan(ctx context.Context) (Summary, error) {
	return m.locked(ctx, "scan", m.scan)
}

// RunSearch executes only the catalog phase.
func (m *Manager) RunSearch(ctx context.Context) (Summary, error) {
	return m.locked(ctx, "search", m.search)
}

// RunDownload executes only the download phase.
func (m *Manager) RunDownload(ctx context.Context) (Summary, error) {
	return m.locked(ctx, "download", m.download)
}

func (m *Manager) locked(ctx context.Context, name string, fn func(context.Context) (Summary, error)) (Summary, error) {
	lock := flock.New(m.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return Summary{}, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	if !m.skipPreflight {
		if err := m.runPreflightChecks(ctx); err != nil {
			return Summary{}, services.Wrap(services.ErrConfiguration, "workflow", "preflight", "Fix the reported paths and rerun", err)
		}
	}

	if reset, err := m.store.ResetStuckProcessing(ctx); err != nil {
		return Summary{}, err
	} else if reset > 0 {
		logging.WarnWithContext(logger, "reset tracks left mid-stage", "stuck_reset",
			logging.Int64("count", reset),
			logging.String(logging.FieldImpact, "interrupted tracks are retried this run"),
		)
	}

	start := time.Now()
	logger.Info("pipeline started", logging.String("phase", name), logging.String(logging.FieldEventType, "run_start"))
	summary, runErr := fn(ctx)
	summary.Duration = time.Since(start)

	logger.Info("pipeline finished",
		logging.String("phase", name),
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("summary", summary.String()),
		logging.Duration("duration", summary.Duration),
	)
	if runErr != nil {
		if ctx.Err() == nil {
			if err := m.notifier.NotifyError(ctx, runErr, name); err != nil {
				logger.Debug("error notification failed", logging.Error(err))
			}
		}
		return summary, runErr
	}
	if err := m.notifier.NotifyRunCompleted(ctx, summary.Report()); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return summary, nil
}
