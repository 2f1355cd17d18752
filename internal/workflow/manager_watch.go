package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"tunescan/internal/logging"
	"tunescan/internal/ocr"
)

const defaultWatchDebounce = 2 * time.Second

// Watch runs the pipeline once, then again every time image files settle in
// the input directory, until ctx is cancelled. Subdirectories created while
// watching are added to the watch.
func (m *Manager) Watch(ctx context.Context) error {
	inputDir := m.cfg.Paths.InputDir
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return fmt.Errorf("create input directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := m.watchTree(watcher, inputDir); err != nil {
		return err
	}

	debounce := time.Duration(m.cfg.Workflow.WatchDebounceSeconds) * time.Second
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	logger := logging.NewComponentLogger(m.logger, "watch")
	logger.Info("watching for screenshots",
		logging.String("input_dir", inputDir),
		logging.Duration("debounce", debounce),
	)

	m.watchRun(ctx, logger)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if m.handleWatchEvent(watcher, event) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "watcher error", "watch_error", logging.Error(err))
		case <-timer.C:
			m.watchRun(ctx, logger)
		}
	}
}

// handleWatchEvent reports whether event should trigger a run.
func (m *Manager) handleWatchEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := m.watchTree(watcher, event.Name); err != nil {
				m.logger.Warn("failed to watch new directory", logging.String("path", event.Name), logging.Error(err))
			}
			return true
		}
		return false
	}
	rel, err := filepath.Rel(m.cfg.Paths.InputDir, event.Name)
	if err != nil {
		return false
	}
	return ocr.MatchesImage(rel, m.cfg.OCR.Patterns)
}

func (m *Manager) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (m *Manager) watchRun(ctx context.Context, logger *slog.Logger) {
	summary, err := m.Run(ctx)
	switch {
	case err == nil:
		logger.Info("watch run complete", logging.String("summary", summary.String()))
	case errors.Is(err, ErrLocked):
		logger.Warn("another run holds the lock; skipping", logging.String(logging.FieldEventType, "watch_locked"))
	case ctx.Err() != nil:
		// shutting down
	default:
		logger.Error("watch run failed", logging.Error(err))
	}
}
