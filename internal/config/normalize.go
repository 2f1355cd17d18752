package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizeSearch()
	c.normalizeEnrichment()
	c.normalizeDownload()
	c.normalizeTagging()
	c.normalizeLogging()
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Workflow.WatchDebounceSeconds <= 0 {
		c.Workflow.WatchDebounceSeconds = defaultWatchDebounce
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir()
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOCR() {
	c.OCR.TesseractBinary = defaultString(c.OCR.TesseractBinary, defaultTesseractBinary)
	c.OCR.Language = defaultString(c.OCR.Language, defaultOCRLanguage)
	patterns := make([]string, 0, len(c.OCR.Patterns))
	seen := make(map[string]struct{}, len(c.OCR.Patterns))
	for _, pattern := range c.OCR.Patterns {
		normalized := strings.ToLower(strings.TrimSpace(pattern))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		patterns = append(patterns, normalized)
	}
	if len(patterns) == 0 {
		patterns = []string{defaultOCRPattern}
	}
	c.OCR.Patterns = patterns
	if c.OCR.Workers <= 0 {
		c.OCR.Workers = defaultOCRWorkers
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeout
	}
	if c.OCR.ThresholdBlock <= 0 {
		c.OCR.ThresholdBlock = defaultThresholdBlock
	}
	if c.OCR.LineGapFactor <= 0 {
		c.OCR.LineGapFactor = defaultLineGapFactor
	}
	if c.OCR.MinLineLength < 0 {
		c.OCR.MinLineLength = 0
	}
}

func (c *Config) normalizeSearch() {
	c.Search.Provider = strings.ToLower(defaultString(c.Search.Provider, defaultSearchProvider))
	c.Search.BaseURL = strings.TrimRight(defaultString(c.Search.BaseURL, defaultSearchBaseURL), "/")
	c.Search.Language = defaultString(c.Search.Language, defaultSearchLanguage)
	if c.Search.RequestsPerSecond <= 0 {
		c.Search.RequestsPerSecond = defaultSearchRate
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
}

func (c *Config) normalizeEnrichment() {
	c.MusicBrainz.Contact = defaultString(c.MusicBrainz.Contact, musicBrainzContactEmail)
	if c.MusicBrainz.MinScore <= 0 {
		c.MusicBrainz.MinScore = defaultEnrichMinScore
	}

	c.Spotify.ClientID = strings.TrimSpace(c.Spotify.ClientID)
	if c.Spotify.ClientID == "" {
		if value, ok := os.LookupEnv("SPOTIFY_ID"); ok {
			c.Spotify.ClientID = strings.TrimSpace(value)
		}
	}
	c.Spotify.ClientSecret = strings.TrimSpace(c.Spotify.ClientSecret)
	if c.Spotify.ClientSecret == "" {
		if value, ok := os.LookupEnv("SPOTIFY_SECRET"); ok {
			c.Spotify.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.Spotify.Market = strings.ToUpper(defaultString(c.Spotify.Market, defaultSpotifyMarket))
	if c.Spotify.MinScore <= 0 {
		c.Spotify.MinScore = defaultEnrichMinScore
	}
}

func (c *Config) normalizeDownload() {
	c.Download.Resolver = strings.ToLower(defaultString(c.Download.Resolver, defaultResolver))
	c.Download.YtDlpBinary = defaultString(c.Download.YtDlpBinary, defaultYtDlpBinary)
	c.Download.FFmpegBinary = defaultString(c.Download.FFmpegBinary, defaultFFmpegBinary)
	c.Download.FFprobeBinary = defaultString(c.Download.FFprobeBinary, defaultFFprobeBinary)
	c.Download.Bitrate = defaultString(c.Download.Bitrate, defaultBitrate)
	if c.Download.SampleRate <= 0 {
		c.Download.SampleRate = defaultSampleRate
	}
	if c.Download.Channels <= 0 {
		c.Download.Channels = defaultChannels
	}
	if c.Download.MinFileBytes < 0 {
		c.Download.MinFileBytes = 0
	}
	if c.Download.ConfirmAboveMB < 0 {
		c.Download.ConfirmAboveMB = 0
	}
	c.Download.NonInteractive = strings.ToLower(defaultString(c.Download.NonInteractive, defaultNonInteractive))
	if c.Download.MaxAttempts <= 0 {
		c.Download.MaxAttempts = defaultMaxAttempts
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeTagging() {
	if c.Tagging.MaxCoverPx < 0 {
		c.Tagging.MaxCoverPx = 0
	}
	if c.Tagging.CoverTimeout <= 0 {
		c.Tagging.CoverTimeout = defaultCoverTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
