package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	LibraryDir string `toml:"library_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// OCR contains screenshot text extraction settings.
type OCR struct {
	TesseractBinary string   `toml:"tesseract_binary"`
	Language        string   `toml:"language"`
	PageSegMode     int      `toml:"page_seg_mode"`
	Patterns        []string `toml:"patterns"`
	Workers         int      `toml:"workers"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	// Crop fractions are relative to the image width, matching phone
	// screenshots where the header and navigation bar scale with width.
	CropTop         float64 `toml:"crop_top"`
	CropBottom      float64 `toml:"crop_bottom"`
	CropSides       float64 `toml:"crop_sides"`
	ThresholdBlock  int     `toml:"threshold_block"`
	ThresholdOffset float64 `toml:"threshold_offset"`
	LineGapFactor   float64 `toml:"line_gap_factor"`
	MinLineLength   int     `toml:"min_line_length"`
}

// Search contains music catalog lookup settings.
type Search struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MinScore          float64 `toml:"min_score"`
}

// MusicBrainz contains optional album and cover enrichment settings.
type MusicBrainz struct {
	Enabled  bool    `toml:"enabled"`
	Contact  string  `toml:"contact"`
	MinScore float64 `toml:"min_score"`
}

// Spotify contains optional album and cover enrichment settings.
type Spotify struct {
	Enabled      bool    `toml:"enabled"`
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	Market       string  `toml:"market"`
	MinScore     float64 `toml:"min_score"`
}

// Download contains stream resolution and transcoding settings.
type Download struct {
	Resolver          string `toml:"resolver"`
	YtDlpBinary       string `toml:"ytdlp_binary"`
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	Verify            bool   `toml:"verify"`
	Bitrate           string `toml:"bitrate"`
	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	MinFileBytes      int64  `toml:"min_file_bytes"`
	ConfirmAboveMB    int    `toml:"confirm_above_mb"`
	NonInteractive    string `toml:"non_interactive"`
	MaxAttempts       int    `toml:"max_attempts"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Tagging contains ID3 tagging settings.
type Tagging struct {
	EmbedCover   bool `toml:"embed_cover"`
	MaxCoverPx   int  `toml:"max_cover_px"`
	CoverTimeout int  `toml:"cover_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunComplete    bool   `toml:"run_complete"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains run and watch timing.
type Workflow struct {
	WatchDebounceSeconds int `toml:"watch_debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tunescan.
//
// Configuration sections by subsystem:
//   - Paths: screenshot inbox, music library, state directory
//   - OCR: tesseract invocation and screenshot preprocessing
//   - Search: YouTube Music lookup and throttling
//   - MusicBrainz, Spotify: optional metadata enrichment
//   - Download: yt-dlp/ffmpeg settings and size confirmation
//   - Tagging: ID3 tags and cover art
//   - Notifications: ntfy push notification settings
//   - Workflow: watch mode timing
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	OCR           OCR           `toml:"ocr"`
	Search        Search        `toml:"search"`
	MusicBrainz   MusicBrainz   `toml:"musicbrainz"`
	Spotify       Spotify       `toml:"spotify"`
	Download      Download      `toml:"download"`
	Tagging       Tagging       `toml:"tagging"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tunescan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
// The input directory is left alone so a missing inbox can be reported.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.LibraryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the queue database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "tunescan.db")
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "tunescan.lock")
}

// LogFilePath returns the persistent log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "tunescan.log")
}

// ConfirmAboveBytes converts the confirmation threshold to bytes. Zero disables prompting.
func (c *Config) ConfirmAboveBytes() int64 {
	return int64(c.Download.ConfirmAboveMB) * 1024 * 1024
}

// SpotifyReady reports whether Spotify enrichment has credentials.
func (c *Config) SpotifyReady() bool {
	return c.Spotify.Enabled && c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
