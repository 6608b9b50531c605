package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/lieblocker/internal/analyze"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/playback"
	"github.com/ppiankov/lieblocker/internal/score"
)

const rule = "═══════════════════════════════════════════════════════════"

// printClaims writes one line per claim, most severe first
func printClaims(w io.Writer, claims []model.Claim) {
	if len(claims) == 0 {
		fmt.Fprintln(w, "  No lies found.")
		return
	}
	for _, c := range score.SortBySeverity(claims) {
		fmt.Fprintf(w, "  [%s] %-8s %3.0f%%  %s\n",
			analyze.FormatTimestamp(c.TimestampSeconds), c.Severity, c.Confidence*100, playback.Excerpt(c.ClaimText))
		if verbose && c.Explanation != "" {
			fmt.Fprintf(w, "      %s\n", c.Explanation)
		}
	}
}

func printSummary(w io.Writer, s score.Summary) {
	fmt.Fprintf(w, "  Total:      %d lies\n", s.Total)
	if s.Total == 0 {
		return
	}
	parts := make([]string, 0, 4)
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		if n := s.BySeverity[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", sev, n))
		}
	}
	fmt.Fprintf(w, "  Severity:   %s\n", strings.Join(parts, " "))
	fmt.Fprintf(w, "  Confidence: %.0f%% mean\n", s.MeanConfidence*100)
	fmt.Fprintf(w, "  Skipped:    %s of video\n", analyze.FormatTimestamp(s.FlaggedSeconds))
}

// writeJSON writes v as indented JSON to path, creating parent directories
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// fileSafe maps s to a name usable as a single path element
func fileSafe(s string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if len(safe) > 100 {
		safe = safe[:100]
	}
	if safe == "" {
		safe = "video"
	}
	return safe
}
