package model

import "strings"

// Claim is a false or misleading statement flagged in a video transcript
type Claim struct {
	TimestampSeconds float64  `json:"timestamp_seconds"`   // Start of the flagged segment
	DurationSeconds  float64  `json:"duration_seconds"`    // Length of the flagged segment
	ClaimText        string   `json:"claim_text"`          // Exact quote from the transcript
	Explanation      string   `json:"explanation"`         // Why the claim is problematic
	Confidence       float64  `json:"confidence"`          // Model certainty (0.0-1.0)
	Severity         Severity `json:"severity"`            // low, medium, high, critical
	Category         string   `json:"category"`            // Free-form grouping (default "other")
	Timestamp        string   `json:"timestamp,omitempty"` // Display timestamp as quoted by the model (e.g., "2:34")
}

// DefaultClaimDuration is used when the model gives no usable duration
const DefaultClaimDuration = 10.0

// DefaultCategory is assigned when the model gives no category
const DefaultCategory = "other"

// End returns the first position after the flagged interval
func (c Claim) End() float64 {
	return c.TimestampSeconds + c.DurationSeconds
}

// Contains reports whether position falls in [start, end)
func (c Claim) Contains(position float64) bool {
	return position >= c.TimestampSeconds && position < c.End()
}

// Severity tiers a flagged claim
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes model output; unknown tiers become medium
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Rank orders severities from low (1) to critical (4)
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AnalysisResult is the outcome of one claim-detection run
type AnalysisResult struct {
	Lies                    []Claim `json:"lies"`
	TotalLies               int     `json:"totalLies"`
	AnalysisDurationMinutes int     `json:"analysisDuration"`

	// Unparseable is set when the model reply could not be read as JSON.
	// The run still counts as successful with zero claims.
	Unparseable bool `json:"unparseable,omitempty"`
}

// CacheEntry is what the result store keeps per video
type CacheEntry struct {
	Lies      []Claim       `json:"lies"`
	Timestamp int64         `json:"timestamp"` // epoch milliseconds of the write
	VideoData VideoMetadata `json:"videoData"`
}
