package deps

import (
	"tunescan/internal/config"
	"tunescan/internal/download"
)

// Requirements lists the binaries the configured pipeline needs. yt-dlp is
// optional unless it is the only stream resolver; ffprobe is optional unless
// downloads are verified.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "Tesseract",
			Command:     cfg.OCR.TesseractBinary,
			Description: "Reads track lines from screenshots",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Download.YtDlpBinary,
			Description: "Resolves audio stream URLs",
			Optional:    cfg.Download.Resolver != download.ResolverYtDlp,
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Download.FFmpegBinary,
			Description: "Transcodes audio to mp3",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Download.FFprobeBinary,
			Description: "Verifies downloaded mp3 files",
			Optional:    !cfg.Download.Verify,
		},
	}
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
