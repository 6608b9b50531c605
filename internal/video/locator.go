package video

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

// DefaultDebounce lets a single-page navigation settle before reacting
const DefaultDebounce = time.Second

// ExtractVideoID reads the video identity from a watch URL's query string
func ExtractVideoID(rawURL string) (model.VideoID, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(parsed.Query().Get("v"))
	if id == "" {
		return "", false
	}
	return model.VideoID(id), true
}

// Locator tracks the video shown by the page and reports identity changes.
// Navigation events are debounced: only the last URL in a burst is inspected.
type Locator struct {
	debounce time.Duration
	onChange func(model.VideoID, string)
	logger   *slog.Logger

	mu      sync.Mutex
	current model.VideoID
	pending *time.Timer
	lastURL string
}

// NewLocator creates a locator; onChange runs after a debounced navigation
// lands on a different video. A zero debounce uses DefaultDebounce.
func NewLocator(debounce time.Duration, onChange func(id model.VideoID, rawURL string), log *slog.Logger) *Locator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Locator{
		debounce: debounce,
		onChange: onChange,
		logger:   logger.OrDefault(log),
	}
}

// Current returns the last observed identity
func (l *Locator) Current() model.VideoID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// CurrentURL returns the last URL seen by DetectChange or Navigate
func (l *Locator) CurrentURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastURL
}

// DetectChange compares the identity in rawURL with the previous one.
// It returns the new identity and true only when it changed.
func (l *Locator) DetectChange(rawURL string) (model.VideoID, bool) {
	id, ok := ExtractVideoID(rawURL)

	l.mu.Lock()
	l.lastURL = rawURL
	if !ok || id == l.current {
		l.mu.Unlock()
		return "", false
	}
	l.current = id
	l.mu.Unlock()

	l.logger.Info("new video detected", "video_id", id)
	return id, true
}

// Navigate schedules DetectChange after the debounce window. A navigation
// arriving inside the window replaces the pending one.
func (l *Locator) Navigate(rawURL string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		l.pending.Stop()
	}
	l.pending = time.AfterFunc(l.debounce, func() {
		id, changed := l.DetectChange(rawURL)
		if changed && l.onChange != nil {
			l.onChange(id, rawURL)
		}
	})
}

// Stop cancels a pending navigation reaction
func (l *Locator) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
}
