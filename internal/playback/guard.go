package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

// DefaultPollInterval is how often an armed guard samples the position
const DefaultPollInterval = 500 * time.Millisecond

// State of the guard
type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Skip describes one jump over a flagged segment
type Skip struct {
	VideoID model.VideoID
	From    float64
	Claim   model.Claim
}

// Reporter is told about skips. It runs on its own goroutine.
type Reporter func(Skip)

// GuardOptions configures a Guard
type GuardOptions struct {
	Interval time.Duration
	Notices  *NoticeBoard
	Reporter Reporter
	Logger   *slog.Logger
}

// Guard polls a player while armed and seeks past the first flagged
// interval containing the position.
type Guard struct {
	player   Player
	interval time.Duration
	notices  *NoticeBoard
	report   Reporter
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	videoID model.VideoID
	claims  []model.Claim
	stop    chan struct{}
	done    chan struct{}
}

// NewGuard creates an idle guard for player
func NewGuard(player Player, opts GuardOptions) *Guard {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &Guard{
		player:   player,
		interval: opts.Interval,
		notices:  opts.Notices,
		report:   opts.Reporter,
		logger:   logger.OrDefault(opts.Logger).With("component", "guard"),
	}
}

// State returns Idle or Armed
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Update arms the guard when enabled and claims is non-empty, and disarms
// it otherwise. The claim list replaces the previous one.
func (g *Guard) Update(id model.VideoID, enabled bool, claims []model.Claim) {
	g.mu.Lock()
	g.videoID = id
	g.claims = append([]model.Claim(nil), claims...)
	arm := enabled && len(claims) > 0
	if arm && g.state == Armed {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	if !arm {
		g.Disarm()
		return
	}
	g.arm()
}

func (g *Guard) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Armed {
		return
	}
	g.state = Armed
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	go g.loop(g.stop, g.done)
	g.logger.Debug("guard armed", "video_id", g.videoID, "claims", len(g.claims))
}

// Disarm stops polling and waits for the ticker goroutine to exit.
func (g *Guard) Disarm() {
	g.mu.Lock()
	if g.state == Idle {
		g.mu.Unlock()
		return
	}
	g.state = Idle
	stop, done := g.stop, g.done
	g.stop, g.done = nil, nil
	g.mu.Unlock()

	close(stop)
	<-done
	g.logger.Debug("guard disarmed")
}

func (g *Guard) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.tick()
		case <-stop:
			return
		}
	}
}

// tick performs at most one skip
func (g *Guard) tick() (Skip, bool) {
	if g.player.Paused() {
		return Skip{}, false
	}
	position := g.player.CurrentTime()

	g.mu.Lock()
	var (
		hit   model.Claim
		found bool
	)
	for _, c := range g.claims {
		if c.Contains(position) {
			hit, found = c, true
			break
		}
	}
	id := g.videoID
	g.mu.Unlock()

	if !found {
		return Skip{}, false
	}

	g.player.Seek(hit.End())
	skip := Skip{VideoID: id, From: position, Claim: hit}
	g.logger.Info("skipped flagged segment", "video_id", id, "from", position, "to", hit.End())

	if g.notices != nil {
		g.notices.Show(hit.ClaimText)
	}
	if g.report != nil {
		go g.report(skip)
	}
	return skip, true
}
