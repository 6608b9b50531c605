package worker

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/lieblocker/internal/model"
)

func TestNewLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(1, 0); l.burst != defaultBurst {
		t.Errorf("expected burst %d, got %d", defaultBurst, l.burst)
	}
	if l := LimiterFromConfig(model.ConcurrencyConfig{RequestsPerSecond: 2, BurstSize: 4}); l.burst != 4 {
		t.Errorf("expected burst 4, got %d", l.burst)
	}
}

func TestLimiter_PacesPerHost(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://www.youtube.com/watch?v=a") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("https://www.youtube.com/watch?v=b") {
		t.Error("second request to the same host should be held back")
	}
	if !l.Allow("https://m.youtube.com/watch?v=c") {
		t.Error("another host has its own budget")
	}
}

func TestLimiter_HostIsCaseInsensitive(t *testing.T) {
	l := NewLimiter(1, 1)
	l.Allow("https://WWW.YouTube.com/watch?v=a")
	if l.Allow("https://www.youtube.com/watch?v=b") {
		t.Error("hosts differing only in case should share a limiter")
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	l := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !l.Allow("https://www.youtube.com/watch?v=x") {
			t.Fatalf("request %d was limited", i)
		}
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.5, 1)
	url := "https://www.youtube.com/watch?v=a"
	if err := l.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail when the deadline is shorter than the pacing")
	}
}

func TestLimiter_SetCrawlDelay(t *testing.T) {
	l := NewLimiter(100, 5)
	l.SetCrawlDelay("www.youtube.com", 10*time.Second)

	l.Allow("https://www.youtube.com/watch?v=a")
	if l.Allow("https://www.youtube.com/watch?v=b") {
		t.Error("crawl delay should leave a burst of one")
	}

	// Reporting the same delay again must not hand out a fresh token.
	l.SetCrawlDelay("www.youtube.com", 10*time.Second)
	if l.Allow("https://www.youtube.com/watch?v=c") {
		t.Error("repeated crawl delay reset the budget")
	}
}

func TestLimiter_RejectsBadURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if err := l.Wait(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
	if l.Allow("::") {
		t.Error("unparseable URL must not be allowed")
	}
}
