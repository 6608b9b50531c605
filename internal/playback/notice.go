package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/lieblocker/internal/logger"
)

const (
	NoticeTitle           = "Lie Skipped"
	DefaultNoticeDuration = 3 * time.Second
	excerptLimit          = 100
)

// Notice is the transient message shown after a skip
type Notice struct {
	Title   string
	Excerpt string
}

// Notifier renders notices
type Notifier interface {
	Show(n Notice)
	Dismiss(n Notice)
}

// Excerpt shortens a claim to 100 characters plus an ellipsis
func Excerpt(claim string) string {
	runes := []rune(claim)
	if len(runes) <= excerptLimit {
		return claim
	}
	return string(runes[:excerptLimit]) + "..."
}

// NoticeBoard keeps at most one notice visible and dismisses it after a delay.
type NoticeBoard struct {
	notifier Notifier
	duration time.Duration

	mu      sync.Mutex
	current *Notice
	timer   *time.Timer
}

// NewNoticeBoard creates a board; a non-positive duration uses the default
func NewNoticeBoard(n Notifier, duration time.Duration) *NoticeBoard {
	if duration <= 0 {
		duration = DefaultNoticeDuration
	}
	return &NoticeBoard{notifier: n, duration: duration}
}

// Show replaces the current notice with one for claim
func (b *NoticeBoard) Show(claim string) Notice {
	n := Notice{Title: NoticeTitle, Excerpt: Excerpt(claim)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	if b.current != nil {
		b.notifier.Dismiss(*b.current)
	}
	b.current = &n
	b.notifier.Show(n)

	shown := b.current
	b.timer = time.AfterFunc(b.duration, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.current != shown {
			return
		}
		b.notifier.Dismiss(*shown)
		b.current = nil
	})
	return n
}

// Current returns the visible notice, if any
func (b *NoticeBoard) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// LogNotifier writes notices to a logger
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.OrDefault(log)}
}

func (n *LogNotifier) Show(notice Notice) {
	n.logger.Info(notice.Title, "claim", notice.Excerpt)
}

func (n *LogNotifier) Dismiss(Notice) {}
