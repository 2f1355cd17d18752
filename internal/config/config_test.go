package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tunescan/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantInput := filepath.Join(tempHome, "Pictures", "tunescan")
	if cfg.Paths.InputDir != wantInput {
		t.Fatalf("unexpected input dir: got %q want %q", cfg.Paths.InputDir, wantInput)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "tunescan")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if !filepath.IsAbs(cfg.Paths.LibraryDir) {
		t.Fatalf("expected absolute library dir, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "tunescan.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.OCR.LineGapFactor != 2.5 {
		t.Fatalf("unexpected line gap factor: %v", cfg.OCR.LineGapFactor)
	}
	if cfg.OCR.ThresholdBlock != 31 || cfg.OCR.ThresholdOffset != 15 {
		t.Fatalf("unexpected threshold defaults: %d/%v", cfg.OCR.ThresholdBlock, cfg.OCR.ThresholdOffset)
	}
	if cfg.Download.Bitrate != "192k" || cfg.Download.SampleRate != 44100 || cfg.Download.Channels != 2 {
		t.Fatalf("unexpected transcode defaults: %+v", cfg.Download)
	}
	if cfg.Download.MinFileBytes != 10240 {
		t.Fatalf("unexpected min file bytes: %d", cfg.Download.MinFileBytes)
	}
	if cfg.ConfirmAboveBytes() != 30*1024*1024 {
		t.Fatalf("unexpected confirm threshold: %d", cfg.ConfirmAboveBytes())
	}
	if cfg.SpotifyReady() {
		t.Fatal("expected spotify disabled by default")
	}

	cfg.Paths.LibraryDir = filepath.Join(tempHome, "Music", "tunescan")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.LibraryDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.InputDir); !os.IsNotExist(err) {
		t.Fatalf("expected input dir to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tunescan.toml")

	type payload struct {
		Paths struct {
			InputDir   string `toml:"input_dir"`
			LibraryDir string `toml:"library_dir"`
		} `toml:"paths"`
		OCR struct {
			Language string   `toml:"language"`
			Patterns []string `toml:"patterns"`
		} `toml:"ocr"`
		Download struct {
			Resolver       string `toml:"resolver"`
			ConfirmAboveMB int    `toml:"confirm_above_mb"`
		} `toml:"download"`
	}
	custom := payload{}
	custom.Paths.InputDir = filepath.Join(tempDir, "shots")
	custom.Paths.LibraryDir = filepath.Join(tempDir, "music")
	custom.OCR.Language = "eng+fas"
	custom.OCR.Patterns = []string{" *.PNG ", "*.png", "**/*.jpg"}
	custom.Download.Resolver = "NATIVE"
	custom.Download.ConfirmAboveMB = 50
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.InputDir != custom.Paths.InputDir {
		t.Fatalf("expected input dir from file, got %q", cfg.Paths.InputDir)
	}
	if cfg.OCR.Language != "eng+fas" {
		t.Fatalf("expected language from file, got %q", cfg.OCR.Language)
	}
	if strings.Join(cfg.OCR.Patterns, ",") != "*.png,**/*.jpg" {
		t.Fatalf("expected deduplicated lowercase patterns, got %v", cfg.OCR.Patterns)
	}
	if cfg.Download.Resolver != "native" {
		t.Fatalf("expected resolver to be lowercased, got %q", cfg.Download.Resolver)
	}
	if cfg.ConfirmAboveBytes() != 50*1024*1024 {
		t.Fatalf("unexpected confirm threshold: %d", cfg.ConfirmAboveBytes())
	}
}

func TestLoadReadsSpotifyCredentialsFromDotEnv(t *testing.T) {
	for _, key := range []string{"SPOTIFY_ID", "SPOTIFY_SECRET"} {
		if _, ok := os.LookupEnv(key); ok {
			t.Skipf("%s already set in environment", key)
		}
	}
	t.Cleanup(func() {
		os.Unsetenv("SPOTIFY_ID")
		os.Unsetenv("SPOTIFY_SECRET")
	})

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tunescan.toml")
	body := "[spotify]\nenabled = true\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := "SPOTIFY_ID=env-id\nSPOTIFY_SECRET=env-secret\n"
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Spotify.ClientID != "env-id" || cfg.Spotify.ClientSecret != "env-secret" {
		t.Fatalf("expected credentials from .env, got %q/%q", cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	}
	if !cfg.SpotifyReady() {
		t.Fatal("expected spotify to be ready")
	}
}

func TestConfigFileCredentialsWinOverEnv(t *testing.T) {
	t.Setenv("SPOTIFY_ID", "env-id")
	t.Setenv("SPOTIFY_SECRET", "env-secret")

	configPath := filepath.Join(t.TempDir(), "tunescan.toml")
	body := "[spotify]\nenabled = true\nclient_id = \"file-id\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Spotify.ClientID != "file-id" {
		t.Errorf("expected client id from file, got %q", cfg.Spotify.ClientID)
	}
	if cfg.Spotify.ClientSecret != "env-secret" {
		t.Errorf("expected client secret from env, got %q", cfg.Spotify.ClientSecret)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.InputDir, "tunescan") {
		t.Fatalf("expected input dir to contain tunescan, got %q", cfg.Paths.InputDir)
	}
	if cfg.OCR.ThresholdBlock != 31 {
		t.Fatalf("expected sample threshold block 31, got %d", cfg.OCR.ThresholdBlock)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"even threshold block": func(c *config.Config) { c.OCR.ThresholdBlock = 30 },
		"crop sides too wide":  func(c *config.Config) { c.OCR.CropSides = 0.5 },
		"negative crop":        func(c *config.Config) { c.OCR.CropTop = -0.1 },
		"unknown provider":     func(c *config.Config) { c.Search.Provider = "napster" },
		"min score above one":  func(c *config.Config) { c.Search.MinScore = 1.5 },
		"unknown resolver":     func(c *config.Config) { c.Download.Resolver = "wget" },
		"unknown policy":       func(c *config.Config) { c.Download.NonInteractive = "ask" },
		"spotify without keys": func(c *config.Config) { c.Spotify.Enabled = true },
		"same input and library": func(c *config.Config) {
			c.Paths.LibraryDir = c.Paths.InputDir
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
