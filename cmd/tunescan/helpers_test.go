package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tunescan/internal/config"
	"tunescan/internal/queue"
)

type cliEnv struct {
	base       string
	configPath string
	cfg        *config.Config
}

func setupCLIEnv(t *testing.T, extra string) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliEnv{base: base, configPath: filepath.Join(base, "config.toml")}
	content := fmt.Sprintf(`[paths]
input_dir = %q
library_dir = %q
state_dir = %q
log_dir = %q

[logging]
level = "error"
%s`,
		filepath.Join(base, "inbox"),
		filepath.Join(base, "library"),
		filepath.Join(base, "state"),
		filepath.Join(base, "state", "logs"),
		extra,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	env.cfg = cfg
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) withStore(t *testing.T, fn func(*queue.Store)) {
	t.Helper()
	store, err := queue.Open(e.cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()
	fn(store)
}

func seedTrack(t *testing.T, store *queue.Store, raw string, match *queue.Match) int64 {
	t.Helper()
	ctx := context.Background()
	if _, err := store.AddRawTrack(ctx, raw, "shot.png"); err != nil {
		t.Fatalf("AddRawTrack: %v", err)
	}
	tracks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var id int64
	for _, tr := range tracks {
		if tr.RawText == raw {
			id = tr.ID
		}
	}
	if match != nil {
		if _, err := store.ApplyMatch(ctx, id, *match); err != nil {
			t.Fatalf("ApplyMatch: %v", err)
		}
	}
	return id
}
