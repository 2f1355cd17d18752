package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"

	"tunescan/internal/config"
	"tunescan/internal/logging"
	"tunescan/internal/services"
	"tunescan/internal/testsupport"
)

type fakeRunner struct {
	calls      [][]string
	ytdlpOut   string
	ytdlpErr   error
	ffmpegSize int64
	ffmpegErr  error
	probeOut   string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	switch name {
	case "yt-dlp":
		return []byte(f.ytdlpOut), f.ytdlpErr
	case "ffmpeg":
		if f.ffmpegErr != nil {
			return nil, f.ffmpegErr
		}
		out := args[len(args)-1]
		if err := os.WriteFile(out, make([]byte, f.ffmpegSize), 0o644); err != nil {
			return nil, err
		}
		return nil, nil
	case "ffprobe":
		return []byte(f.probeOut), nil
	}
	return nil, errors.New("unexpected command " + name)
}

func (f *fakeRunner) called(name string) []string {
	for _, call := range f.calls {
		if call[0] == name {
			return call
		}
	}
	return nil
}

type fakeVideos struct {
	err     error
	formats youtube.FormatList
	signed  *youtube.Format
}

func (f *fakeVideos) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &youtube.Video{ID: id, Formats: f.formats}, nil
}

func (f *fakeVideos) GetStreamURLContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (string, error) {
	f.signed = format
	return "https://native.example/itag/" + strconv.Itoa(format.ItagNo), nil
}

func sampleFormats() youtube.FormatList {
	return youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2, Bitrate: 500000, ContentLength: 9000000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 130000, ContentLength: 3500000},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AudioChannels: 2, Bitrate: 160000, ApproxDurationMs: "215000"},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
	}
}

func newTestDownloader(t *testing.T, runner *fakeRunner, videos *fakeVideos, mutate ...func(*config.Config)) (*Downloader, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	for _, m := range mutate {
		m(cfg)
	}
	if videos == nil {
		videos = &fakeVideos{formats: sampleFormats()}
	}
	return New(cfg, runner, logging.NewNop()).WithVideoSource(videos), cfg
}

func TestDownloadRunsYtDlpThenFFmpeg(t *testing.T) {
	runner := &fakeRunner{ytdlpOut: "https://stream.example/audio\n", ffmpegSize: 20000}
	d, cfg := newTestDownloader(t, runner, nil)

	path, err := d.Download(context.Background(), "yKNxeF4KMsY", "Coldplay - Yellow")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	want := filepath.Join(cfg.Paths.LibraryDir, "Coldplay - Yellow.mp3")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 20000 {
		t.Fatalf("expected finished file, got %v %v", info, err)
	}

	ytdlp := strings.Join(runner.called("yt-dlp")[1:], " ")
	if ytdlp != "-f bestaudio/best -g https://www.youtube.com/watch?v=yKNxeF4KMsY" {
		t.Fatalf("unexpected yt-dlp args %q", ytdlp)
	}
	ffmpeg := runner.called("ffmpeg")
	got := strings.Join(ffmpeg[1:len(ffmpeg)-1], " ")
	if got != "-nostdin -y -i https://stream.example/audio -vn -ar 44100 -ac 2 -b:a 192k -f mp3" {
		t.Fatalf("unexpected ffmpeg args %q", got)
	}
	if filepath.Dir(ffmpeg[len(ffmpeg)-1]) != cfg.Paths.LibraryDir {
		t.Fatalf("expected temp output inside library, got %q", ffmpeg[len(ffmpeg)-1])
	}

	entries, _ := os.ReadDir(cfg.Paths.LibraryDir)
	if len(entries) != 1 {
		t.Fatalf("expected only the final file in library, got %d entries", len(entries))
	}
}

func TestDownloadRejectsTinyOutput(t *testing.T) {
	runner := &fakeRunner{ytdlpOut: "https://stream.example/audio", ffmpegSize: 10240}
	d, cfg := newTestDownloader(t, runner, nil)

	_, err := d.Download(context.Background(), "vid", "Artist - Song")
	if err == nil || !strings.Contains(err.Error(), "too small") {
		t.Fatalf("expected size error, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.LibraryDir)
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestDownloadFFmpegFailureIsExternalToolError(t *testing.T) {
	runner := &fakeRunner{ytdlpOut: "https://stream.example/audio", ffmpegErr: errors.New("exit status 1")}
	d, _ := newTestDownloader(t, runner, nil)
	if _, err := d.Download(context.Background(), "vid", "A - B"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestDownloadKeepsExistingFile(t *testing.T) {
	runner := &fakeRunner{}
	d, cfg := newTestDownloader(t, runner, nil)
	existing := filepath.Join(cfg.Paths.LibraryDir, "A - B.mp3")
	testsupport.WriteFile(t, existing, 64)

	path, err := d.Download(context.Background(), "vid", "A - B")
	if err != nil || path != existing {
		t.Fatalf("expected existing file, got %q %v", path, err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no commands, got %v", runner.calls)
	}
}

func TestDownloadVerifiesWithFFprobe(t *testing.T) {
	runner := &fakeRunner{
		ytdlpOut:   "https://stream.example/audio",
		ffmpegSize: 20000,
		probeOut:   `{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"200"}}`,
	}
	d, _ := newTestDownloader(t, runner, nil, func(c *config.Config) { c.Download.Verify = true })
	if _, err := d.Download(context.Background(), "vid", "A - B"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error from probe, got %v", err)
	}
}

func TestAutoResolverFallsBackToNative(t *testing.T) {
	runner := &fakeRunner{ytdlpErr: errors.New("ERROR: Sign in to confirm"), ffmpegSize: 20000}
	videos := &fakeVideos{formats: sampleFormats()}
	d, _ := newTestDownloader(t, runner, videos)

	if _, err := d.Download(context.Background(), "vid", "A - B"); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if videos.signed == nil || videos.signed.ItagNo != 251 {
		t.Fatalf("expected best audio-only format 251, got %#v", videos.signed)
	}
	ffmpeg := runner.called("ffmpeg")
	if ffmpeg[4] != "https://native.example/itag/251" {
		t.Fatalf("expected native stream URL, got %v", ffmpeg)
	}
}

func TestResolverSelection(t *testing.T) {
	runner := &fakeRunner{ytdlpErr: errors.New("boom")}
	d, _ := newTestDownloader(t, runner, &fakeVideos{err: errors.New("offline")}, func(c *config.Config) {
		c.Download.Resolver = ResolverYtDlp
	})
	if _, err := d.ResolveStream(context.Background(), "vid"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected yt-dlp error, got %v", err)
	}

	native, _ := newTestDownloader(t, &fakeRunner{}, nil, func(c *config.Config) { c.Download.Resolver = ResolverNative })
	url, err := native.ResolveStream(context.Background(), "vid")
	if err != nil || url != "https://native.example/itag/251" {
		t.Fatalf("unexpected native resolution %q %v", url, err)
	}

	both, _ := newTestDownloader(t, &fakeRunner{ytdlpErr: errors.New("boom")}, &fakeVideos{err: errors.New("offline")})
	if _, err := both.ResolveStream(context.Background(), "vid"); err == nil {
		t.Fatal("expected error when both resolvers fail")
	}
}

func TestYtDlpEmptyOutput(t *testing.T) {
	d, _ := newTestDownloader(t, &fakeRunner{ytdlpOut: "\n"}, nil, func(c *config.Config) { c.Download.Resolver = ResolverYtDlp })
	if _, err := d.ResolveStream(context.Background(), "vid"); err == nil {
		t.Fatal("expected error for empty yt-dlp output")
	}
}

func TestFileSize(t *testing.T) {
	d, _ := newTestDownloader(t, &fakeRunner{}, nil)
	if got := d.FileSize(context.Background(), "vid"); got != 4300000 {
		t.Fatalf("expected estimated size 4300000, got %d", got)
	}

	withLength := &fakeVideos{formats: youtube.FormatList{
		{ItagNo: 140, MimeType: "audio/mp4", AudioChannels: 2, Bitrate: 130000, ContentLength: 3500000},
	}}
	d, _ = newTestDownloader(t, &fakeRunner{}, withLength)
	if got := d.FileSize(context.Background(), "vid"); got != 3500000 {
		t.Fatalf("expected content length, got %d", got)
	}

	d, _ = newTestDownloader(t, &fakeRunner{}, &fakeVideos{err: errors.New("offline")})
	if got := d.FileSize(context.Background(), "vid"); got != 0 {
		t.Fatalf("expected 0 on error, got %d", got)
	}
}

func TestDownloadWithStubBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("yt-dlp", "echo https://stream.example/audio\n"),
		testsupport.WithStubScript("ffmpeg", "eval out=\\${$#}\nhead -c 20480 /dev/zero > \"$out\"\n"),
	)
	d := New(cfg, services.ExecRunner{}, logging.NewNop()).WithVideoSource(&fakeVideos{})
	path, err := d.Download(context.Background(), "vid", "Stub - Song")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 20480 {
		t.Fatalf("unexpected output %v %v", info, err)
	}
}
