package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/lieblocker/internal/cache"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

// ResultStore reads through remote then local, and writes to both.
// Storage failures are logged and never returned to the analysis flow.
type ResultStore struct {
	remote Remote
	local  cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewResultStore creates a result store; remote may be nil
func NewResultStore(remote Remote, local cache.Cache, log *slog.Logger) *ResultStore {
	return &ResultStore{
		remote: remote,
		local:  local,
		logger: logger.OrDefault(log).With("component", "store"),
		now:    time.Now,
	}
}

// CheckCached returns a previous analysis of id, or nil
func (s *ResultStore) CheckCached(ctx context.Context, id model.VideoID) *model.CacheEntry {
	if s.remote != nil {
		stats, err := s.remote.GetVideoStats(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn("remote store lookup failed", "video_id", id, "error", err)
		case stats != nil && len(stats.Lies) > 0:
			return remoteEntry(stats)
		}
	}

	entry, ok := s.Local(id)
	if !ok {
		return nil
	}
	return entry
}

func remoteEntry(stats *VideoStats) *model.CacheEntry {
	claims := make([]model.Claim, 0, len(stats.Lies))
	for _, lie := range stats.Lies {
		claims = append(claims, lie.Claim())
	}
	return &model.CacheEntry{
		Lies:      claims,
		Timestamp: stats.AnalyzedAt.UnixMilli(),
		VideoData: model.VideoMetadata{
			Title:       stats.VideoTitle,
			ChannelName: stats.ChannelName,
			VideoID:     stats.VideoID,
		},
	}
}

// Local reads the local tier only
func (s *ResultStore) Local(id model.VideoID) (*model.CacheEntry, bool) {
	raw, ok := s.local.Get(LocalKey(id))
	if !ok {
		return nil, false
	}
	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("discarding unreadable local entry", "video_id", id, "error", err)
		return nil, false
	}
	return &entry, true
}

// Store records a finished analysis: remote best-effort, then always local
func (s *ResultStore) Store(ctx context.Context, id model.VideoID, meta model.VideoMetadata, result *model.AnalysisResult) {
	if result == nil {
		return
	}

	if s.remote != nil {
		s.storeRemote(ctx, id, meta, result)
	}

	entry := model.CacheEntry{
		Lies:      result.Lies,
		Timestamp: s.now().UnixMilli(),
		VideoData: meta,
	}
	if entry.Lies == nil {
		entry.Lies = []model.Claim{}
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("encode local entry", "video_id", id, "error", err)
		return
	}
	if err := s.local.Set(LocalKey(id), raw, cache.NoExpiry); err != nil {
		s.logger.Error("write local entry", "video_id", id, "error", err)
	}
}

func (s *ResultStore) storeRemote(ctx context.Context, id model.VideoID, meta model.VideoMetadata, result *model.AnalysisResult) {
	rec := VideoAnalysisRecord{
		VideoID:                 id,
		VideoTitle:              meta.Title,
		ChannelName:             meta.ChannelName,
		TotalLies:               result.TotalLies,
		AnalysisDurationMinutes: result.AnalysisDurationMinutes,
	}
	if err := s.remote.StoreVideoAnalysis(ctx, rec); err != nil {
		s.logger.Warn("remote store write failed", "video_id", id, "error", err)
		return
	}
	if len(result.Lies) == 0 {
		return
	}
	if err := s.remote.StoreLies(ctx, NewLieRecords(id, result.Lies)); err != nil {
		s.logger.Warn("remote lie write failed", "video_id", id, "lies", len(result.Lies), "error", err)
	}
}

// Clear removes the local entry for id
func (s *ResultStore) Clear(id model.VideoID) error {
	return s.local.Delete(LocalKey(id))
}
