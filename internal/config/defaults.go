package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	defaultConfigPath       = "~/.config/tunescan/config.toml"
	defaultInputDir         = "~/Pictures/tunescan"
	defaultStateDir         = "~/.local/share/tunescan"
	defaultLogDir           = "~/.local/share/tunescan/logs"
	defaultTesseractBinary  = "tesseract"
	defaultOCRLanguage      = "eng"
	defaultPageSegMode      = 3
	defaultOCRPattern       = "*.{png,jpg,jpeg}"
	defaultOCRWorkers       = 2
	defaultOCRTimeout       = 120
	defaultCropTop          = 0.25
	defaultCropBottom       = 0.10
	defaultCropSides        = 0.15
	defaultThresholdBlock   = 31
	defaultThresholdOffset  = 15
	defaultLineGapFactor    = 2.5
	defaultMinLineLength    = 3
	defaultSearchProvider   = "ytmusic"
	defaultSearchBaseURL    = "https://music.youtube.com"
	defaultSearchLanguage   = "en"
	defaultSearchRate       = 1.0
	defaultSearchTimeout    = 20
	defaultEnrichMinScore   = 0.85
	defaultSpotifyMarket    = "US"
	defaultResolver         = "auto"
	defaultYtDlpBinary      = "yt-dlp"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultBitrate          = "192k"
	defaultSampleRate       = 44100
	defaultChannels         = 2
	defaultMinFileBytes     = 10 * 1024
	defaultConfirmAboveMB   = 30
	defaultNonInteractive   = "skip"
	defaultMaxAttempts      = 3
	defaultDownloadTimeout  = 900
	defaultMaxCoverPx       = 600
	defaultCoverTimeout     = 15
	defaultNotifyTimeout    = 10
	defaultWatchDebounce    = 2
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	fallbackLibraryDir      = "~/Music/tunescan"
	musicBrainzContactEmail = "tunescan@localhost"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			LibraryDir: defaultLibraryDir(),
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		OCR: OCR{
			TesseractBinary: defaultTesseractBinary,
			Language:        defaultOCRLanguage,
			PageSegMode:     defaultPageSegMode,
			Patterns:        []string{defaultOCRPattern},
			Workers:         defaultOCRWorkers,
			TimeoutSeconds:  defaultOCRTimeout,
			CropTop:         defaultCropTop,
			CropBottom:      defaultCropBottom,
			CropSides:       defaultCropSides,
			ThresholdBlock:  defaultThresholdBlock,
			ThresholdOffset: defaultThresholdOffset,
			LineGapFactor:   defaultLineGapFactor,
			MinLineLength:   defaultMinLineLength,
		},
		Search: Search{
			Provider:          defaultSearchProvider,
			BaseURL:           defaultSearchBaseURL,
			Language:          defaultSearchLanguage,
			RequestsPerSecond: defaultSearchRate,
			TimeoutSeconds:    defaultSearchTimeout,
		},
		MusicBrainz: MusicBrainz{
			Contact:  musicBrainzContactEmail,
			MinScore: defaultEnrichMinScore,
		},
		Spotify: Spotify{
			Market:   defaultSpotifyMarket,
			MinScore: defaultEnrichMinScore,
		},
		Download: Download{
			Resolver:       defaultResolver,
			YtDlpBinary:    defaultYtDlpBinary,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			Verify:         true,
			Bitrate:        defaultBitrate,
			SampleRate:     defaultSampleRate,
			Channels:       defaultChannels,
			MinFileBytes:   defaultMinFileBytes,
			ConfirmAboveMB: defaultConfirmAboveMB,
			NonInteractive: defaultNonInteractive,
			MaxAttempts:    defaultMaxAttempts,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Tagging: Tagging{
			EmbedCover:   true,
			MaxCoverPx:   defaultMaxCoverPx,
			CoverTimeout: defaultCoverTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunComplete:    true,
			Errors:         true,
		},
		Workflow: Workflow{
			WatchDebounceSeconds: defaultWatchDebounce,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// defaultLibraryDir prefers the XDG music directory so downloads land next to
// the rest of the user's library.
func defaultLibraryDir() string {
	music := strings.TrimSpace(xdg.UserDirs.Music)
	if music == "" {
		return fallbackLibraryDir
	}
	return filepath.Join(music, "tunescan")
}
