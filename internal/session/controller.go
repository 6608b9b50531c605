package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/extract"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/messaging"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/playback"
	"github.com/ppiankov/lieblocker/internal/settings"
	"github.com/ppiankov/lieblocker/internal/validate"
	"github.com/ppiankov/lieblocker/internal/video"
)

// Extractor turns a page into transcript text
type Extractor interface {
	Extract(ctx context.Context, page extract.Page) (string, error)
}

// Analyzer finds claims in a transcript
type Analyzer interface {
	Analyze(ctx context.Context, transcript string, meta model.VideoMetadata, s model.Settings) (*model.AnalysisResult, error)
}

// ResultStore caches finished analyses
type ResultStore interface {
	CheckCached(ctx context.Context, id model.VideoID) *model.CacheEntry
	Store(ctx context.Context, id model.VideoID, meta model.VideoMetadata, result *model.AnalysisResult)
}

// SkipSource reports the persisted skip preference
type SkipSource interface {
	SkipLiesEnabled(ctx context.Context) bool
}

// syncer is implemented by players whose state is pushed from outside
type syncer interface {
	Sync(position float64, paused bool)
}

// Options wires a Controller
type Options struct {
	Settings    settings.Provider
	Extractor   Extractor
	Analyzer    Analyzer
	Store       ResultStore
	Coordinator messaging.Coordinator
	Player      playback.Player
	Notifier    playback.Notifier

	NavigationDebounce time.Duration
	PollInterval       time.Duration
	NoticeDuration     time.Duration
	Logger             *slog.Logger
}

// Controller dispatches inbound messages and runs the analysis flow.
// At most one analysis runs at a time; a second request fails immediately.
type Controller struct {
	settings    settings.Provider
	extractor   Extractor
	analyzer    Analyzer
	store       ResultStore
	coordinator messaging.Coordinator
	player      playback.Player
	guard       *playback.Guard
	locator     *video.Locator
	logger      *slog.Logger

	state     State
	analyzing atomic.Bool
	now       func() time.Time
}

// New creates a controller
func New(opts Options) *Controller {
	log := logger.OrDefault(opts.Logger).With("component", "session")
	coordinator := opts.Coordinator
	if coordinator == nil {
		coordinator = messaging.NopCoordinator{}
	}

	c := &Controller{
		settings:    opts.Settings,
		extractor:   opts.Extractor,
		analyzer:    opts.Analyzer,
		store:       opts.Store,
		coordinator: coordinator,
		player:      opts.Player,
		logger:      log,
		now:         time.Now,
	}
	if src, ok := opts.Settings.(SkipSource); ok {
		c.state.SetSkip(src.SkipLiesEnabled(context.Background()))
	}

	if opts.Player != nil {
		var notices *playback.NoticeBoard
		if opts.Notifier != nil {
			notices = playback.NewNoticeBoard(opts.Notifier, opts.NoticeDuration)
		}
		c.guard = playback.NewGuard(opts.Player, playback.GuardOptions{
			Interval: opts.PollInterval,
			Notices:  notices,
			Reporter: c.reportSkip,
			Logger:   opts.Logger,
		})
	}

	c.locator = video.NewLocator(opts.NavigationDebounce, func(id model.VideoID, _ string) {
		c.onVideoChange(context.Background(), id)
	}, opts.Logger)
	return c
}

// State exposes the session state
func (c *Controller) State() *State {
	return &c.state
}

// Guard returns the playback guard, nil without a player
func (c *Controller) Guard() *playback.Guard {
	return c.guard
}

// Load installs a page and reacts to its identity without debouncing.
func (c *Controller) Load(ctx context.Context, rawURL string, page extract.Page) model.VideoID {
	c.state.SetPage(rawURL, page)
	if id, changed := c.locator.DetectChange(rawURL); changed {
		c.onVideoChange(ctx, id)
	}
	return c.state.VideoID()
}

// Close stops the locator and the guard
func (c *Controller) Close() {
	c.locator.Stop()
	if c.guard != nil {
		c.guard.Disarm()
	}
}

// Handle answers one inbound message
func (c *Controller) Handle(ctx context.Context, m messaging.Message) messaging.Response {
	switch msg := m.(type) {
	case messaging.Ping:
		return messaging.Response{Success: true, Loaded: true, Timestamp: c.now().UnixMilli()}

	case messaging.AnalyzeVideo:
		return c.AnalyzeVideo(ctx)

	case messaging.SkipLiesToggle:
		c.state.SetSkip(msg.Enabled)
		c.logger.Info("skip lies toggled", "enabled", msg.Enabled)
		c.syncGuard()
		return messaging.Response{Success: true}

	case messaging.JumpToTimestamp:
		if c.player != nil {
			c.player.Seek(msg.Timestamp)
		}
		return messaging.Response{Success: true}

	case messaging.PageUpdate:
		var page extract.Page
		if msg.HTML != "" {
			p, err := extract.NewStaticPage(msg.HTML)
			if err != nil {
				return messaging.Failure(err)
			}
			page = p
		}
		c.state.SetPage(msg.URL, page)
		c.locator.Navigate(msg.URL)
		return messaging.Response{Success: true}

	case messaging.PlaybackState:
		if p, ok := c.player.(syncer); ok {
			p.Sync(msg.CurrentTime, msg.Paused)
		}
		return messaging.Response{Success: true}

	case messaging.LiesUpdate:
		if c.state.SetClaims(msg.VideoID, msg.Claims) {
			c.syncGuard()
		}
		return messaging.Response{Success: true}

	default:
		return messaging.Response{Success: true, Message: "Message received"}
	}
}

// AnalyzeVideo runs the analysis flow for the current video
func (c *Controller) AnalyzeVideo(ctx context.Context) messaging.Response {
	if !c.analyzing.CompareAndSwap(false, true) {
		return messaging.Failure(errors.ErrBusy)
	}
	defer c.analyzing.Store(false)

	rawURL, _ := c.state.Page()
	id, ok := video.ExtractVideoID(rawURL)
	if !ok {
		return messaging.Failure(errors.ErrNoVideo)
	}

	claims, cached, err := c.analyze(ctx, id)
	if err != nil {
		msg := userMessage(err)
		c.logger.Error("analysis failed", "video_id", id, "error", err)
		_, _ = c.deliver(ctx, messaging.AnalysisResult{Data: "Error: " + msg})
		return messaging.Response{Success: false, Error: msg}
	}
	if cached {
		return messaging.Response{Success: true, Cached: true}
	}
	return messaging.Response{Success: true, Lies: claims}
}

func (c *Controller) analyze(ctx context.Context, id model.VideoID) ([]model.Claim, bool, error) {
	if err := c.send(ctx, messaging.StartAnalysis{VideoID: id}); err != nil {
		return nil, false, err
	}
	if err := c.progress(ctx, messaging.StageStarting, "Starting video analysis..."); err != nil {
		return nil, false, err
	}
	if err := c.progress(ctx, messaging.StageValidation, "Validating API configuration..."); err != nil {
		return nil, false, err
	}

	s, err := c.settings.GetSettings(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := validate.RequireAPIKey(s.AIProvider, s.APIKey); err != nil {
		return nil, false, err
	}

	if entry := c.checkCached(ctx, id); entry != nil {
		c.logger.Info("using cached analysis", "video_id", id, "lies", len(entry.Lies))
		claims := entry.Lies
		if claims == nil {
			claims = []model.Claim{}
		}
		if err := c.publish(ctx, id, claims, fmt.Sprintf("Analysis loaded from cache. Found %d lies.", len(claims))); err != nil {
			return nil, false, err
		}
		return claims, true, nil
	}

	if err := c.progress(ctx, messaging.StageTranscript, "Extracting video transcript..."); err != nil {
		return nil, false, err
	}
	_, page := c.state.Page()
	if page == nil || c.extractor == nil {
		return nil, false, errors.ExtractionFailed(errors.New("no page loaded"))
	}
	transcript, err := c.extractor.Extract(ctx, page)
	if err != nil {
		return nil, false, err
	}
	if transcript == "" {
		return nil, false, errors.ExtractionFailed()
	}
	c.logger.Info("transcript extracted", "video_id", id, "chars", len(transcript))

	meta := c.metadata(ctx, page, id)

	if err := c.progress(ctx, messaging.StageAnalysis, "Analyzing transcript for lies..."); err != nil {
		return nil, false, err
	}
	result, err := c.analyzer.Analyze(ctx, transcript, meta, s)
	if err != nil {
		return nil, false, err
	}

	if c.store != nil {
		c.store.Store(ctx, id, meta, result)
	}

	claims := result.Lies
	if claims == nil {
		claims = []model.Claim{}
	}
	if err := c.publish(ctx, id, claims, fmt.Sprintf("Analysis complete. Found %d lies.", len(claims))); err != nil {
		return nil, false, err
	}
	return claims, false, nil
}

// publish installs claims for id and broadcasts them with a summary
func (c *Controller) publish(ctx context.Context, id model.VideoID, claims []model.Claim, summary string) error {
	if c.state.SetClaims(id, claims) {
		c.syncGuard()
	}
	if err := c.send(ctx, messaging.LiesUpdate{Claims: claims, VideoID: id, IsComplete: true}); err != nil {
		return err
	}
	return c.send(ctx, messaging.AnalysisResult{Data: summary})
}

func (c *Controller) metadata(ctx context.Context, page extract.Page, id model.VideoID) model.VideoMetadata {
	doc, err := page.Document(ctx)
	if err != nil {
		c.logger.Warn("could not read page metadata", "video_id", id, "error", err)
		return video.ExtractMetadata(nil, id)
	}
	return video.ExtractMetadata(doc, id)
}

func (c *Controller) checkCached(ctx context.Context, id model.VideoID) *model.CacheEntry {
	if c.store == nil {
		return nil
	}
	return c.store.CheckCached(ctx, id)
}

func (c *Controller) progress(ctx context.Context, stage, message string) error {
	return c.send(ctx, messaging.AnalysisProgress{Stage: stage, Message: message})
}

func (c *Controller) send(ctx context.Context, m messaging.Message) error {
	_, err := c.deliver(ctx, m)
	return err
}

// deliver sends m and treats an invalidated coordinator as a dropped message
func (c *Controller) deliver(ctx context.Context, m messaging.Message) (*messaging.Response, error) {
	resp, err := c.coordinator.Send(ctx, m)
	if errors.Is(err, errors.ErrContextInvalidated) {
		c.logger.Debug("message dropped", "type", m.MessageType())
		return nil, nil
	}
	return resp, err
}

// onVideoChange resets the session for id and loads known claims. The skip
// flag carries over from the previous video.
func (c *Controller) onVideoChange(ctx context.Context, id model.VideoID) {
	c.state.Reset(id)
	if c.guard != nil {
		c.guard.Disarm()
	}

	c.loadClaims(ctx, id)
	c.syncGuard()
}

// loadClaims asks the coordinator first and falls back to the result store
func (c *Controller) loadClaims(ctx context.Context, id model.VideoID) {
	resp, err := c.deliver(ctx, messaging.GetCurrentVideoLies{VideoID: id})
	if err != nil {
		c.logger.Warn("could not load current video lies", "video_id", id, "error", err)
	}
	if resp != nil && resp.Success && resp.Lies != nil {
		c.state.SetClaims(id, resp.Lies)
		c.logger.Info("loaded current video lies", "video_id", id, "lies", len(resp.Lies))
		return
	}

	if entry := c.checkCached(ctx, id); entry != nil && entry.Lies != nil {
		c.state.SetClaims(id, entry.Lies)
		c.logger.Info("loaded lies from cache", "video_id", id, "lies", len(entry.Lies))
	}
}

func (c *Controller) syncGuard() {
	if c.guard == nil {
		return
	}
	c.guard.Update(c.state.VideoID(), c.state.SkipEnabled(), c.state.Claims())
}

func (c *Controller) reportSkip(s playback.Skip) {
	ctx, cancel := context.WithTimeout(context.Background(), messaging.DefaultTimeout)
	defer cancel()
	_, err := c.deliver(ctx, messaging.LieSkipped{
		VideoID:   s.VideoID,
		Timestamp: s.Claim.TimestampSeconds,
		Duration:  s.Claim.DurationSeconds,
		Claim:     s.Claim.ClaimText,
	})
	if err != nil {
		c.logger.Warn("could not report skip", "video_id", s.VideoID, "error", err)
	}
}

// userMessage drops wrapped causes from coded errors
func userMessage(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
