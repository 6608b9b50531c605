package score

import (
	"testing"

	"github.com/ppiankov/lieblocker/internal/model"
)

func claims() []model.Claim {
	return []model.Claim{
		{TimestampSeconds: 30, DurationSeconds: 10, Confidence: 0.90, Severity: model.SeverityMedium},
		{TimestampSeconds: 10, DurationSeconds: 5, Confidence: 0.85, Severity: model.SeverityCritical},
		{TimestampSeconds: 50, DurationSeconds: 8, Confidence: 0.60, Severity: model.SeverityHigh},
		{TimestampSeconds: 70, DurationSeconds: 12, Confidence: 0.99, Severity: model.SeverityLow},
	}
}

func TestFilterByConfidence_Boundary(t *testing.T) {
	kept := FilterByConfidence(claims(), 85)
	if len(kept) != 3 {
		t.Fatalf("expected 3 claims at >= 0.85, got %d", len(kept))
	}
	for _, c := range kept {
		if c.Confidence < 0.85 {
			t.Errorf("claim below threshold kept: %+v", c)
		}
	}
}

func TestFilterByConfidence_Idempotent(t *testing.T) {
	once := FilterByConfidence(claims(), 85)
	twice := FilterByConfidence(once, 85)
	if len(once) != len(twice) {
		t.Errorf("filter not idempotent: %d then %d", len(once), len(twice))
	}
}

func TestFilterByConfidence_Monotonic(t *testing.T) {
	prev := len(claims()) + 1
	for _, threshold := range []int{0, 50, 85, 90, 95, 100} {
		n := len(FilterByConfidence(claims(), threshold))
		if n > prev {
			t.Errorf("raising threshold to %d grew result from %d to %d", threshold, prev, n)
		}
		prev = n
	}
	if got := len(FilterByConfidence(claims(), 0)); got != 4 {
		t.Errorf("threshold 0 should keep all, got %d", got)
	}
}

func TestSortBySeverity(t *testing.T) {
	input := claims()
	sorted := SortBySeverity(input)
	want := []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow}
	for i, sev := range want {
		if sorted[i].Severity != sev {
			t.Errorf("position %d: got %s, want %s", i, sorted[i].Severity, sev)
		}
	}
	if input[0].Severity != model.SeverityMedium {
		t.Error("input slice must not be reordered")
	}
}

func TestSortByTimestamp(t *testing.T) {
	sorted := SortByTimestamp(claims())
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].TimestampSeconds > sorted[i].TimestampSeconds {
			t.Fatalf("not ordered at %d: %v", i, sorted)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(claims())
	if s.Total != 4 || s.Worst != model.SeverityCritical {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.FlaggedSeconds != 35 {
		t.Errorf("FlaggedSeconds = %v, want 35", s.FlaggedSeconds)
	}
	if s.BySeverity[model.SeverityHigh] != 1 {
		t.Errorf("BySeverity = %v", s.BySeverity)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.Worst != "" {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}
