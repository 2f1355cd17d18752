package workflow

import (
	"io"
	"log/slog"

	"tunescan/internal/config"
	"tunescan/internal/download"
	"tunescan/internal/logging"
	"tunescan/internal/notifications"
	"tunescan/internal/ocr"
	"tunescan/internal/queue"
	"tunescan/internal/search"
	"tunescan/internal/services"
	"tunescan/internal/tagging"
)

// Manager coordinates the scan, search, and download phases.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	scanner    imageScanner
	finder     matchFinder
	downloader audioDownloader
	tagger     trackTagger
	prompter   download.Prompter
	assumeYes  bool

	skipPreflight bool
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier replaces the notification service.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) { m.notifier = notifier }
}

// WithScanner replaces the OCR scanner.
func WithScanner(scanner imageScanner) ManagerOption {
	return func(m *Manager) { m.scanner = scanner }
}

// WithFinder replaces the catalog matcher.
func WithFinder(finder matchFinder) ManagerOption {
	return func(m *Manager) { m.finder = finder }
}

// WithDownloader replaces the audio downloader.
func WithDownloader(downloader audioDownloader) ManagerOption {
	return func(m *Manager) { m.downloader = downloader }
}

// WithTagger replaces the ID3 tagger.
func WithTagger(tagger trackTagger) ManagerOption {
	return func(m *Manager) { m.tagger = tagger }
}

// WithPrompter sets how large downloads are confirmed.
func WithPrompter(prompter download.Prompter) ManagerOption {
	return func(m *Manager) { m.prompter = prompter }
}

// WithAssumeYes accepts every large download without asking.
func WithAssumeYes(yes bool) ManagerOption {
	return func(m *Manager) { m.assumeYes = yes }
}

// WithoutPreflight skips directory and free-space checks before Run.
func WithoutPreflight() ManagerOption {
	return func(m *Manager) { m.skipPreflight = true }
}

// NewManager constructs a manager wired to the real OCR, catalog, download,
// and tagging implementations. Options override individual components.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		notifier: notifications.NewService(cfg),
		prompter: download.NewTerminalPrompter(),
	}
	for _, opt := range opts {
		opt(m)
	}
	runner := services.ExecRunner{}
	if m.scanner == nil {
		m.scanner = ocr.NewScanner(cfg, runner)
	}
	if m.finder == nil {
		m.finder = search.NewFinder(cfg, logger)
	}
	if m.downloader == nil {
		m.downloader = download.New(cfg, runner, logger)
	}
	if m.tagger == nil {
		m.tagger = tagging.New(cfg, logger)
	}
	return m
}

// Close releases resources held by the catalog finder.
func (m *Manager) Close() error {
	if c, ok := m.finder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (m *Manager) sizeGate() download.SizeGate {
	return download.SizeGate{
		Threshold:      m.cfg.ConfirmAboveBytes(),
		AssumeYes:      m.assumeYes,
		NonInteractive: m.cfg.Download.NonInteractive,
		Prompter:       m.prompter,
	}
}
