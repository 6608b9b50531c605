// Package pipeline analyzes watch pages fetched over HTTP, one fresh
// session per URL.
//
// A fetched page is a static snapshot: nothing can click the transcript
// control, so extraction only succeeds when the served HTML already holds
// the transcript segments. AnalyzeFile covers pages saved from a browser
// with the transcript panel open.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/extract"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/messaging"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/score"
	"github.com/ppiankov/lieblocker/internal/session"
	"github.com/ppiankov/lieblocker/internal/settings"
	"github.com/ppiankov/lieblocker/internal/video"
)

// Options are the collaborators shared by every run
type Options struct {
	Settings    settings.Provider
	Extractor   session.Extractor
	Analyzer    session.Analyzer
	Store       session.ResultStore
	Coordinator messaging.Coordinator
	Logger      *slog.Logger
}

// Pipeline orchestrates fetch, extraction and analysis for single URLs
type Pipeline struct {
	fetcher *Fetcher
	opts    Options
	logger  *slog.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(fetcher *Fetcher, opts Options) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.OrDefault(opts.Logger).With("component", "pipeline"),
	}
}

// Result is the outcome of one URL
type Result struct {
	URL        string              `json:"url"`
	VideoID    model.VideoID       `json:"video_id"`
	Metadata   model.VideoMetadata `json:"metadata"`
	Claims     []model.Claim       `json:"lies"`
	Cached     bool                `json:"cached"`
	Summary    score.Summary       `json:"summary"`
	AnalyzedAt time.Time           `json:"analyzed_at"`
}

// AnalyzeURL fetches the watch page and runs the analysis flow on it.
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*Result, error) {
	id, ok := video.ExtractVideoID(rawURL)
	if !ok {
		return nil, errors.ErrNoVideo
	}

	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if fetched.FromCache {
		p.logger.Debug("watch page served from cache", "video_id", id)
	}

	page, err := extract.NewStaticPage(fetched.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return p.AnalyzePage(ctx, rawURL, page)
}

// AnalyzeFile runs the analysis flow on a watch page saved to path. rawURL
// identifies the video.
func (p *Pipeline) AnalyzeFile(ctx context.Context, rawURL, path string) (*Result, error) {
	if _, ok := video.ExtractVideoID(rawURL); !ok {
		return nil, errors.ErrNoVideo
	}
	markup, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	page, err := extract.NewStaticPage(string(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return p.AnalyzePage(ctx, rawURL, page)
}

// AnalyzePage runs the analysis flow on an already loaded page
func (p *Pipeline) AnalyzePage(ctx context.Context, rawURL string, page extract.Page) (*Result, error) {
	c := session.New(session.Options{
		Settings:    p.opts.Settings,
		Extractor:   p.opts.Extractor,
		Analyzer:    p.opts.Analyzer,
		Store:       p.opts.Store,
		Coordinator: p.opts.Coordinator,
		Logger:      p.opts.Logger,
	})
	defer c.Close()

	id := c.Load(ctx, rawURL, page)
	resp := c.AnalyzeVideo(ctx)
	if !resp.Success {
		return nil, fmt.Errorf("analyze %s: %s", id, resp.Error)
	}

	var meta model.VideoMetadata
	if doc, err := page.Document(ctx); err == nil {
		meta = video.ExtractMetadata(doc, id)
	} else {
		meta = video.ExtractMetadata(nil, id)
	}

	claims := c.State().Claims()
	if claims == nil {
		claims = []model.Claim{}
	}
	return &Result{
		URL:        rawURL,
		VideoID:    id,
		Metadata:   meta,
		Claims:     claims,
		Cached:     resp.Cached,
		Summary:    score.Summarize(claims),
		AnalyzedAt: time.Now().UTC(),
	}, nil
}
