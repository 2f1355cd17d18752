package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

type fakeRunner struct {
	out  string
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.args = append([]string{name}, args...)
	return []byte(f.out), f.err
}

const mp3JSON = `{"streams":[{"index":0,"codec_name":"mp3","codec_type":"audio","sample_rate":"44100","channels":2,"bit_rate":"192000"},
{"index":1,"codec_name":"mjpeg","codec_type":"video"}],
"format":{"filename":"a.mp3","nb_streams":2,"duration":"215.3","size":"5170000","bit_rate":"192100","format_name":"mp3"}}`

func TestInspectDecodesOutput(t *testing.T) {
	runner := &fakeRunner{out: mp3JSON}
	result, err := Inspect(context.Background(), runner, "", "/music/a.mp3")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if runner.args[0] != "ffprobe" || runner.args[len(runner.args)-1] != "/music/a.mp3" {
		t.Fatalf("unexpected invocation %v", runner.args)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 215.3 || result.BitRate() != 192100 {
		t.Fatalf("unexpected format values %+v", result.Format)
	}
	if err := result.VerifyMP3(1); err != nil {
		t.Fatalf("VerifyMP3: %v", err)
	}
}

func TestInspectErrors(t *testing.T) {
	if _, err := Inspect(context.Background(), &fakeRunner{}, "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Inspect(context.Background(), &fakeRunner{err: errors.New("exit 1")}, "ffprobe", "x"); err == nil {
		t.Fatal("expected runner error")
	}
	if _, err := Inspect(context.Background(), &fakeRunner{out: "not json"}, "ffprobe", "x"); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestVerifyMP3Rejects(t *testing.T) {
	cases := map[string]Result{
		"no audio":     {Streams: []Stream{{CodecType: "video"}}, Format: Format{Duration: "10"}},
		"wrong codec":  {Streams: []Stream{{CodecType: "audio", CodecName: "opus"}}, Format: Format{Duration: "10"}},
		"too short":    {Streams: []Stream{{CodecType: "audio", CodecName: "mp3"}}, Format: Format{Duration: "0.2"}},
		"bad duration": {Streams: []Stream{{CodecType: "audio", CodecName: "mp3"}}, Format: Format{Duration: "bad"}},
	}
	for name, result := range cases {
		if err := result.VerifyMP3(1); err == nil {
			t.Fatalf("%s: expected verification error", name)
		}
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "nope"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}
