package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Status", "Count"}, [][]string{{"pending", "3"}, {"failed"}}, 1)
	for _, want := range []string{"│ Status", "Count", "pending", "failed", "3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, "STATUS") {
		t.Fatalf("expected header case preserved:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatal("expected trailing newline")
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("FFmpeg", statusError, "binary \"ffmpeg\" not found", false)
	if !strings.HasPrefix(line, "  FFmpeg:") || !strings.Contains(line, "[ERROR] binary") {
		t.Fatalf("unexpected line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no colour codes: %q", line)
	}
	if got := renderStatusLine("Tracks", statusInfo, "", false); !strings.HasSuffix(got, "[INFO]") {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Queue ", false)
	if len(lines) != 2 || lines[0] != "== Queue ==" || lines[1] != strings.Repeat("-", len("== Queue ==")) {
		t.Fatalf("unexpected header %q", lines)
	}
}
