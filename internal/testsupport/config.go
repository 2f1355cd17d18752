package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tunescan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The library and state directories exist; the input directory does not
// unless WithInputDir is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "inbox")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Search.RequestsPerSecond = 1000
	cfgVal.Download.Verify = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, dir := range []string{cfgVal.Paths.LibraryDir, cfgVal.Paths.StateDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInputDir creates the screenshot inbox so scans do not stop early.
func WithInputDir() ConfigOption {
	return func(b *configBuilder) {
		if err := os.MkdirAll(b.cfg.Paths.InputDir, 0o755); err != nil {
			b.t.Fatalf("mkdir input dir: %v", err)
		}
	}
}

// WithStubbedBinaries writes no-op executables for the provided names and
// prepends them to PATH. If names is empty, every external tool is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"tesseract", "yt-dlp", "ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			writeStub(b.t, b.baseDir, name, "exit 0\n")
		}
	}
}

// WithStubScript installs a shell script body as an executable named name on
// PATH. The body runs under /bin/sh with the original arguments.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b.t, b.baseDir, name, body)
	}
}

func writeStub(t testing.TB, baseDir, name, body string) {
	t.Helper()
	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	script := []byte("#!/bin/sh\n" + body)
	if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}

	oldPath := os.Getenv("PATH")
	if parts := filepath.SplitList(oldPath); len(parts) > 0 && parts[0] == binDir {
		return
	}
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
