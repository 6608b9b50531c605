package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON})
	log.Info("analysis complete", "video_id", "abc123", "lies", 2)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "analysis complete" || rec["video_id"] != "abc123" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestPrettyHandler_LevelFilterAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Level: slog.LevelWarn}).With("component", "guard")

	log.Info("hidden")
	log.Warn("skipped lie", "at", 12.5)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "skipped lie") || !strings.Contains(out, "component=guard") || !strings.Contains(out, "at=12.5") {
		t.Errorf("unexpected output: %q", out)
	}
}
