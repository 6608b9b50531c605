// Package score filters and ranks detected claims.
package score

import (
	"sort"

	"github.com/ppiankov/lieblocker/internal/model"
)

// FilterByConfidence keeps claims whose confidence reaches thresholdPercent/100.
// The input slice is not modified.
func FilterByConfidence(claims []model.Claim, thresholdPercent int) []model.Claim {
	threshold := float64(thresholdPercent) / 100
	kept := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		if c.Confidence >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

// SortBySeverity orders claims most severe first, then by position
func SortBySeverity(claims []model.Claim) []model.Claim {
	sorted := make([]model.Claim, len(claims))
	copy(sorted, claims)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Severity.Rank(), sorted[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return sorted[i].TimestampSeconds < sorted[j].TimestampSeconds
	})
	return sorted
}

// SortByTimestamp orders claims by where they start in the video
func SortByTimestamp(claims []model.Claim) []model.Claim {
	sorted := make([]model.Claim, len(claims))
	copy(sorted, claims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampSeconds < sorted[j].TimestampSeconds
	})
	return sorted
}

// Summary condenses a claim list for reports
type Summary struct {
	Total          int                    `json:"total"`
	BySeverity     map[model.Severity]int `json:"by_severity"`
	Worst          model.Severity         `json:"worst,omitempty"`
	MeanConfidence float64                `json:"mean_confidence"`
	FlaggedSeconds float64                `json:"flagged_seconds"`
}

// Summarize counts claims per severity and totals the flagged time
func Summarize(claims []model.Claim) Summary {
	s := Summary{Total: len(claims), BySeverity: make(map[model.Severity]int)}
	if len(claims) == 0 {
		return s
	}

	var confidence float64
	for _, c := range claims {
		s.BySeverity[c.Severity]++
		confidence += c.Confidence
		s.FlaggedSeconds += c.DurationSeconds
		if c.Severity.Rank() > s.Worst.Rank() {
			s.Worst = c.Severity
		}
	}
	s.MeanConfidence = confidence / float64(len(claims))
	return s
}
