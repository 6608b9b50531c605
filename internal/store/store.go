// Package store is the two-tier result store: a remote structured store
// with priority and the local cache as fallback, keyed by video id.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/lieblocker/internal/model"
)

// Remote is the long-lived, cross-session store
type Remote interface {
	// GetVideoStats returns nil, nil when the video was never stored
	GetVideoStats(ctx context.Context, id model.VideoID) (*VideoStats, error)
	StoreVideoAnalysis(ctx context.Context, rec VideoAnalysisRecord) error
	StoreLies(ctx context.Context, lies []LieRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// VideoAnalysisRecord is one row of video_analysis
type VideoAnalysisRecord struct {
	VideoID                 model.VideoID `json:"video_id"`
	VideoTitle              string        `json:"video_title"`
	ChannelName             string        `json:"channel_name"`
	TotalLies               int           `json:"total_lies"`
	AnalysisDurationMinutes int           `json:"analysis_duration_minutes"`
}

// LieRecord is one row of lies
type LieRecord struct {
	ID               uuid.UUID      `json:"id"`
	VideoID          model.VideoID  `json:"video_id"`
	TimestampSeconds float64        `json:"timestamp_seconds"`
	DurationSeconds  float64        `json:"duration_seconds"`
	ClaimText        string         `json:"claim_text"`
	Explanation      string         `json:"explanation"`
	Confidence       float64        `json:"confidence"`
	Severity         model.Severity `json:"severity"`
	Category         string         `json:"category"`
}

// VideoStats is what the remote store knows about a video
type VideoStats struct {
	VideoID                 model.VideoID `json:"video_id"`
	VideoTitle              string        `json:"video_title"`
	ChannelName             string        `json:"channel_name"`
	TotalLies               int           `json:"total_lies"`
	AnalysisDurationMinutes int           `json:"analysis_duration_minutes"`
	AnalyzedAt              time.Time     `json:"analyzed_at"`
	Lies                    []LieRecord   `json:"lies"`
}

// LocalKey is the local cache key for a video's analysis
func LocalKey(id model.VideoID) string {
	return "analysis_" + string(id)
}

// NewLieRecords converts claims to rows with fresh ids
func NewLieRecords(id model.VideoID, claims []model.Claim) []LieRecord {
	records := make([]LieRecord, 0, len(claims))
	for _, c := range claims {
		records = append(records, LieRecord{
			ID:               uuid.New(),
			VideoID:          id,
			TimestampSeconds: c.TimestampSeconds,
			DurationSeconds:  c.DurationSeconds,
			ClaimText:        c.ClaimText,
			Explanation:      c.Explanation,
			Confidence:       c.Confidence,
			Severity:         c.Severity,
			Category:         c.Category,
		})
	}
	return records
}

// Claim converts a row back to a claim
func (r LieRecord) Claim() model.Claim {
	c := model.Claim{
		TimestampSeconds: r.TimestampSeconds,
		DurationSeconds:  r.DurationSeconds,
		ClaimText:        r.ClaimText,
		Explanation:      r.Explanation,
		Confidence:       r.Confidence,
		Severity:         model.ParseSeverity(string(r.Severity)),
		Category:         r.Category,
	}
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = model.DefaultClaimDuration
	}
	if c.Category == "" {
		c.Category = model.DefaultCategory
	}
	return c
}
