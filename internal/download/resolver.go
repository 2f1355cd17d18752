package download

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"tunescan/internal/logging"
	"tunescan/internal/services"
)

// Stream resolvers.
const (
	ResolverAuto   = "auto"
	ResolverYtDlp  = "yt-dlp"
	ResolverNative = "native"
)

// VideoSource is the subset of the YouTube client used for native stream
// resolution and size probing.
type VideoSource interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

// WatchURL returns the YouTube watch page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ResolveStream returns a direct media URL for the best audio of videoID.
func (d *Downloader) ResolveStream(ctx context.Context, videoID string) (string, error) {
	switch d.cfg.Resolver {
	case ResolverYtDlp:
		return d.resolveYtDlp(ctx, videoID)
	case ResolverNative:
		return d.resolveNative(ctx, videoID)
	default:
		url, err := d.resolveYtDlp(ctx, videoID)
		if err == nil {
			return url, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		logging.WarnWithContext(d.logger, "yt-dlp stream resolution failed; trying native client", "stream_resolve_fallback",
			logging.String("video_id", videoID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "update yt-dlp"),
			logging.String(logging.FieldImpact, "download continues with the native resolver"),
		)
		url, nativeErr := d.resolveNative(ctx, videoID)
		if nativeErr != nil {
			return "", errors.Join(err, nativeErr)
		}
		return url, nil
	}
}

func (d *Downloader) resolveYtDlp(ctx context.Context, videoID string) (string, error) {
	out, err := d.runner.Run(ctx, d.cfg.YtDlpBinary, "-f", "bestaudio/best", "-g", WatchURL(videoID))
	if err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return "", err
		}
		return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "Could not resolve stream URL", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "Empty stream URL output", nil)
}

func (d *Downloader) resolveNative(ctx context.Context, videoID string) (string, error) {
	video, format, err := d.bestAudio(ctx, videoID)
	if err != nil {
		return "", err
	}
	url, err := d.videos.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "native resolve", "Could not sign stream URL", err)
	}
	return url, nil
}

// bestAudio picks the audio-only format with the highest bitrate, falling
// back to any format carrying audio.
func (d *Downloader) bestAudio(ctx context.Context, videoID string) (*youtube.Video, *youtube.Format, error) {
	video, err := d.videos.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrExternalTool, "download", "video info", fmt.Sprintf("Lookup of %s failed", videoID), err)
	}
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, nil, services.Wrap(services.ErrNotFound, "download", "video info", "No audio formats", nil)
	}
	candidates := make([]youtube.Format, 0, len(formats))
	for _, f := range formats {
		if strings.HasPrefix(f.MimeType, "audio/") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, formats...)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	best := candidates[0]
	return video, &best, nil
}

// estimatedSize is the content length, or bitrate times duration when the
// length is not advertised.
func estimatedSize(f *youtube.Format) int64 {
	if f.ContentLength > 0 {
		return f.ContentLength
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(f.ApproxDurationMs), 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	bitrate := int64(f.AverageBitrate)
	if bitrate <= 0 {
		bitrate = int64(f.Bitrate)
	}
	return bitrate / 8 * ms / 1000
}
