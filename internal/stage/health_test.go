package stage

import "testing"

func TestHealthConstructors(t *testing.T) {
	ok := Healthy("search")
	if !ok.Ready || ok.Name != "search" || ok.Detail != "" {
		t.Fatalf("unexpected healthy record: %+v", ok)
	}
	bad := Unhealthy("download", "ffmpeg missing")
	if bad.Ready || bad.Detail != "ffmpeg missing" {
		t.Fatalf("unexpected unhealthy record: %+v", bad)
	}
}

func TestHealthFromError(t *testing.T) {
	if h := FromError("search", nil); !h.Ready || h.String() != "search: ready" {
		t.Fatalf("unexpected health: %+v", h)
	}
	h := FromError("download", errString("ffmpeg not found"))
	if h.Ready || h.String() != "download: not ready (ffmpeg not found)" {
		t.Fatalf("unexpected health: %q", h.String())
	}
}

type errString string

func (e errString) Error() string { return string(e) }
