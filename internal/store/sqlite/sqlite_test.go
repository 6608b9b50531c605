package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/lieblocker/internal/cache"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/store"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lieblocker.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_MissingVideo(t *testing.T) {
	s := open(t)
	stats, err := s.GetVideoStats(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_RoundTripOrderedAndReplaced(t *testing.T) {
	s := open(t)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, s.StoreVideoAnalysis(ctx, store.VideoAnalysisRecord{
		VideoID: "abc123", VideoTitle: "Cheese Facts", ChannelName: "Dairy TV", TotalLies: 2, AnalysisDurationMinutes: 20,
	}))
	claims := []model.Claim{
		{TimestampSeconds: 90, DurationSeconds: 8, ClaimText: "later", Explanation: "x", Confidence: 0.9, Severity: model.SeverityHigh, Category: "other"},
		{TimestampSeconds: 12, DurationSeconds: 3, ClaimText: "earlier", Explanation: "y", Confidence: 0.85, Severity: model.SeverityLow, Category: "science"},
	}
	require.NoError(t, s.StoreLies(ctx, store.NewLieRecords("abc123", claims)))
	require.NoError(t, s.StoreLies(ctx, store.NewLieRecords("abc123", claims)))

	stats, err := s.GetVideoStats(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, "Cheese Facts", stats.VideoTitle)
	assert.Equal(t, 2, stats.TotalLies)
	assert.True(t, stats.AnalyzedAt.Equal(s.now()))
	require.Len(t, stats.Lies, 2)
	assert.Equal(t, claims[1], stats.Lies[0].Claim())
	assert.Equal(t, claims[0], stats.Lies[1].Claim())
}

func TestStore_LiesRequireAnalysisRow(t *testing.T) {
	s := open(t)
	err := s.StoreLies(context.Background(), store.NewLieRecords("orphan", []model.Claim{{ClaimText: "x", DurationSeconds: 1}}))
	assert.Error(t, err)
}

func TestStore_BacksResultStore(t *testing.T) {
	s := open(t)
	rs := store.NewResultStore(s, cache.NewMemoryCache(0, time.Minute), logger.Discard())
	ctx := context.Background()

	result := &model.AnalysisResult{
		Lies: []model.Claim{{TimestampSeconds: 5, DurationSeconds: 10, ClaimText: "c", Confidence: 0.9,
			Severity: model.SeverityMedium, Category: "other"}},
		TotalLies:               1,
		AnalysisDurationMinutes: 20,
	}
	rs.Store(ctx, "vid", model.VideoMetadata{Title: "T", ChannelName: "C", VideoID: "vid"}, result)
	require.NoError(t, rs.Clear("vid"))

	entry := rs.CheckCached(ctx, "vid")
	require.NotNil(t, entry, "remote tier still holds the analysis")
	assert.Equal(t, result.Lies, entry.Lies)
	assert.Equal(t, "T", entry.VideoData.Title)
}
