package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"tunescan/internal/config"
	"tunescan/internal/logging"
	"tunescan/internal/notifications"
	"tunescan/internal/ocr"
	"tunescan/internal/queue"
	"tunescan/internal/tagging"
	"tunescan/internal/testsupport"
	"tunescan/internal/workflow"
)

type stubScanner struct {
	mu      sync.Mutex
	results map[string]ocr.Result
	errs    map[string]error
	calls   []string
}

func (s *stubScanner) Extract(_ context.Context, path string) (ocr.Result, error) {
	name := filepath.Base(path)
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
	if err := s.errs[name]; err != nil {
		return ocr.Result{}, err
	}
	return s.results[name], nil
}

func (s *stubScanner) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

type stubFinder struct {
	matches map[string]*queue.Match
	errs    map[string]error
}

func (f *stubFinder) FindBestMatch(_ context.Context, raw string) (*queue.Match, error) {
	if err := f.errs[raw]; err != nil {
		return nil, err
	}
	if m, ok := f.matches[raw]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

type stubDownloader struct {
	dir   string
	sizes map[string]int64
	errs  map[string]error
	calls []string
}

func (d *stubDownloader) FileSize(_ context.Context, videoID string) int64 {
	return d.sizes[videoID]
}

func (d *stubDownloader) Download(_ context.Context, videoID, baseName string) (string, error) {
	d.calls = append(d.calls, videoID)
	if err := d.errs[videoID]; err != nil {
		return "", err
	}
	path := filepath.Join(d.dir, baseName+".mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubTagger struct {
	err   error
	metas map[string]tagging.Meta
}

func (t *stubTagger) Apply(_ context.Context, path string, meta tagging.Meta) error {
	if t.metas == nil {
		t.metas = make(map[string]tagging.Meta)
	}
	t.metas[filepath.Base(path)] = meta
	return t.err
}

type stubPrompter struct {
	interactive bool
	answer      bool
	questions   []string
}

func (p *stubPrompter) Interactive() bool { return p.interactive }

func (p *stubPrompter) Confirm(_ context.Context, question string) (bool, error) {
	p.questions = append(p.questions, question)
	return p.answer, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []notifications.RunReport
	failed  []string
	errors  []string
}

func (n *recordingNotifier) NotifyRunCompleted(_ context.Context, r notifications.RunReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, r)
	return nil
}

func (n *recordingNotifier) NotifyTrackFailed(_ context.Context, label string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, label)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, _ error, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, label)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) reportCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reports)
}

type harness struct {
	cfg        *config.Config
	store      *queue.Store
	scanner    *stubScanner
	finder     *stubFinder
	downloader *stubDownloader
	tagger     *stubTagger
	prompter   *stubPrompter
	notifier   *recordingNotifier
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithInputDir()}, opts...)...)
	cfg.OCR.Workers = 1
	return &harness{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		scanner:    &stubScanner{results: map[string]ocr.Result{}, errs: map[string]error{}},
		finder:     &stubFinder{matches: map[string]*queue.Match{}, errs: map[string]error{}},
		downloader: &stubDownloader{dir: cfg.Paths.LibraryDir, sizes: map[string]int64{}, errs: map[string]error{}},
		tagger:     &stubTagger{},
		prompter:   &stubPrompter{},
		notifier:   &recordingNotifier{},
	}
}

func (h *harness) manager(extra ...workflow.ManagerOption) *workflow.Manager {
	opts := []workflow.ManagerOption{
		workflow.WithScanner(h.scanner),
		workflow.WithFinder(h.finder),
		workflow.WithDownloader(h.downloader),
		workflow.WithTagger(h.tagger),
		workflow.WithPrompter(h.prompter),
		workflow.WithNotifier(h.notifier),
		workflow.WithoutPreflight(),
	}
	return workflow.NewManager(h.cfg, h.store, logging.NewNop(), append(opts, extra...)...)
}

func (h *harness) addImage(t *testing.T, name string, lines ...string) {
	t.Helper()
	path := filepath.Join(h.cfg.Paths.InputDir, name)
	if err := os.WriteFile(path, []byte("image"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if lines != nil {
		h.scanner.results[name] = ocr.Result{Lines: lines, FullText: name + " text"}
	}
}

func (h *harness) trackByRaw(t *testing.T, raw string) *queue.Track {
	t.Helper()
	tracks, err := h.store.List(context.Background())
	if err != nil {
		t.Fatalf("list tracks: %v", err)
	}
	for _, track := range tracks {
		if track.RawText == raw {
			return track
		}
	}
	return nil
}

var errOffline = errors.New("offline")
