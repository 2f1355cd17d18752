package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arunsworld/nursery"

	"tunescan/internal/logging"
	"tunescan/internal/ocr"
	"tunescan/internal/services"
)

// scan OCRs every image in the input directory that has not been logged and
// stores each candidate line as a pending track.
func (m *Manager) scan(ctx context.Context) (Summary, error) {
	logger := logging.WithContext(services.WithStage(ctx, "scan"), m.logger)
	inputDir := m.cfg.Paths.InputDir

	if _, err := os.Stat(inputDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(inputDir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("create input directory: %w", err)
		}
		logger.Info("created input directory; add screenshots and rerun",
			logging.String("input_dir", inputDir),
			logging.String(logging.FieldEventType, "input_created"),
		)
		return Summary{}, nil
	}

	files, err := ocr.Discover(inputDir, m.cfg.OCR.Patterns)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "scan", "list images", "Check the input directory", err)
	}
	processed, err := m.store.ProcessedImages(ctx)
	if err != nil {
		return Summary{}, err
	}
	var todo []string
	for _, rel := range files {
		if _, ok := processed[rel]; !ok {
			todo = append(todo, rel)
		}
	}
	if len(todo) == 0 {
		logger.Info("no new images", logging.Int("known_images", len(processed)))
		return Summary{}, nil
	}
	logger.Info("scanning images", logging.Int("new_images", len(todo)), logging.Int("known_images", len(processed)))

	workers := m.cfg.OCR.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(todo) {
		workers = len(todo)
	}

	paths := make(chan string)
	var (
		mu      sync.Mutex
		summary Summary
	)
	record := func(delta Summary) {
		mu.Lock()
		summary.Add(delta)
		mu.Unlock()
	}

	jobs := make([]nursery.ConcurrentJob, 0, workers+1)
	jobs = append(jobs, func(nctx context.Context, _ chan error) {
		defer close(paths)
		for _, rel := range todo {
			select {
			case <-ctx.Done():
				return
			case <-nctx.Done():
				return
			case paths <- rel:
			}
		}
	})
	for i := 0; i < workers; i++ {
		jobs = append(jobs, func(_ context.Context, errCh chan error) {
			for rel := range paths {
				delta, err := m.scanImage(ctx, rel)
				if err != nil {
					errCh <- err
					return
				}
				record(delta)
			}
		})
	}
	err = nursery.RunConcurrently(jobs...)
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

// scanImage processes one screenshot. OCR failures are logged and leave the
// image unlogged so the next run retries it; only store errors are returned.
func (m *Manager) scanImage(ctx context.Context, rel string) (Summary, error) {
	ctx = services.WithImage(ctx, rel)
	logger := logging.WithContext(ctx, m.logger)
	result, err := m.scanner.Extract(ctx, filepath.Join(m.cfg.Paths.InputDir, filepath.FromSlash(rel)))
	if err != nil {
		if ctx.Err() != nil {
			return Summary{}, nil
		}
		logging.WarnWithContext(logger, "ocr failed", "ocr_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the image and the tesseract installation"),
			logging.String(logging.FieldImpact, "image will be retried next run"),
		)
		return Summary{ImagesFailed: 1}, nil
	}

	candidates := result.Candidates(m.cfg.OCR.MinLineLength)
	delta := Summary{ImagesScanned: 1}
	for _, line := range candidates {
		added, err := m.store.AddRawTrack(ctx, line, rel)
		if err != nil {
			return delta, fmt.Errorf("store track from %s: %w", rel, err)
		}
		if added {
			delta.TracksAdded++
		}
	}
	if _, err := m.store.LogImage(ctx, rel, result.FullText, len(candidates)); err != nil {
		return delta, fmt.Errorf("log image %s: %w", rel, err)
	}
	logger.Info("image scanned",
		logging.Int("lines", len(candidates)),
		logging.Int("new_tracks", delta.TracksAdded),
		logging.String(logging.FieldEventType, "image_scanned"),
	)
	return delta, nil
}
