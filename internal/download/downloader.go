package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"tunescan/internal/config"
	"tunescan/internal/fileutil"
	"tunescan/internal/logging"
	"tunescan/internal/media/ffprobe"
	"tunescan/internal/services"
)

// Downloader fetches audio for matched tracks.
type Downloader struct {
	cfg        config.Download
	libraryDir string
	runner     services.CommandRunner
	videos     VideoSource
	logger     *slog.Logger
}

// New builds a downloader from configuration. A nil runner executes real
// binaries.
func New(cfg *config.Config, runner services.CommandRunner, logger *slog.Logger) *Downloader {
	if runner == nil {
		runner = services.ExecRunner{}
	}
	return &Downloader{
		cfg:        cfg.Download,
		libraryDir: cfg.Paths.LibraryDir,
		runner:     runner,
		videos:     &youtube.Client{},
		logger:     logging.NewComponentLogger(logger, "download"),
	}
}

// WithVideoSource replaces the YouTube client.
func (d *Downloader) WithVideoSource(source VideoSource) *Downloader {
	d.videos = source
	return d
}

// Destination returns the library path for baseName.
func (d *Downloader) Destination(baseName string) string {
	return filepath.Join(d.libraryDir, baseName+".mp3")
}

// FileSize reports the size of the best audio-only stream in bytes, or 0 when
// it cannot be determined.
func (d *Downloader) FileSize(ctx context.Context, videoID string) int64 {
	_, format, err := d.bestAudio(ctx, videoID)
	if err != nil {
		d.logger.Debug("size probe failed", logging.String("video_id", videoID), logging.Error(err))
		return 0
	}
	return estimatedSize(format)
}

// Download writes <library>/<baseName>.mp3 and returns its path. An existing
// file is kept unless overwrite_existing is set.
func (d *Downloader) Download(ctx context.Context, videoID, baseName string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	baseName = strings.TrimSpace(baseName)
	if videoID == "" || baseName == "" {
		return "", services.Wrap(services.ErrValidation, "download", "prepare", "Video id and file name are required", nil)
	}
	dest := d.Destination(baseName)
	if !d.cfg.OverwriteExisting && fileutil.Exists(dest) {
		d.logger.Info("file already in library", logging.String("path", dest))
		return dest, nil
	}
	if err := os.MkdirAll(d.libraryDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "prepare", "Cannot create library directory", err)
	}

	if d.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(d.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	stream, err := d.ResolveStream(ctx, videoID)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.libraryDir, ".tunescan-*.mp3.part")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "prepare", "Cannot create temp file", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	started := time.Now()
	if _, err := d.runner.Run(ctx, d.cfg.FFmpegBinary, d.ffmpegArgs(stream, tmpPath)...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "ffmpeg", "Transcode failed", err)
	}
	if err := d.verify(ctx, tmpPath); err != nil {
		return "", err
	}
	if err := fileutil.MoveFile(tmpPath, dest); err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "finalize", "Move into library failed", err)
	}
	d.logger.Info("download complete",
		logging.String("video_id", videoID),
		logging.String("path", dest),
		logging.Duration("elapsed", time.Since(started)),
	)
	return dest, nil
}

func (d *Downloader) ffmpegArgs(stream, out string) []string {
	return []string{
		"-nostdin",
		"-y",
		"-i", stream,
		"-vn",
		"-ar", strconv.Itoa(d.cfg.SampleRate),
		"-ac", strconv.Itoa(d.cfg.Channels),
		"-b:a", d.cfg.Bitrate,
		"-f", "mp3",
		out,
	}
}

func (d *Downloader) verify(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "verify", "Output file missing", err)
	}
	if info.Size() <= d.cfg.MinFileBytes {
		return services.Wrap(services.ErrTransient, "download", "verify",
			fmt.Sprintf("Output too small (%d bytes, need more than %d)", info.Size(), d.cfg.MinFileBytes), nil)
	}
	if !d.cfg.Verify {
		return nil
	}
	result, err := ffprobe.Inspect(ctx, d.runner, d.cfg.FFprobeBinary, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "download", "ffprobe", "Probe failed", err)
	}
	if err := result.VerifyMP3(1); err != nil {
		return services.Wrap(services.ErrValidation, "download", "verify", "Output is not a playable mp3", err)
	}
	return nil
}
