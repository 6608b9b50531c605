package video

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url    string
		wantID model.VideoID
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=abc&t=42s", "abc", true},
		{"https://www.youtube.com/feed/subscriptions", "", false},
		{"https://www.youtube.com/watch?v=", "", false},
		{"::not a url", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestLocator_DetectChange(t *testing.T) {
	l := NewLocator(time.Millisecond, nil, logger.Discard())

	if _, changed := l.DetectChange("https://www.youtube.com/"); changed {
		t.Error("page without identity must be a no-op")
	}
	id, changed := l.DetectChange("https://www.youtube.com/watch?v=one")
	if !changed || id != "one" {
		t.Fatalf("expected change to one, got (%q, %v)", id, changed)
	}
	if _, changed := l.DetectChange("https://www.youtube.com/watch?v=one&t=10"); changed {
		t.Error("same identity must not report a change")
	}
	if l.Current() != "one" {
		t.Errorf("Current() = %q", l.Current())
	}
}

func TestLocator_NavigateDebouncesBursts(t *testing.T) {
	var mu sync.Mutex
	var seen []model.VideoID
	done := make(chan struct{}, 4)

	l := NewLocator(30*time.Millisecond, func(id model.VideoID, _ string) {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
		done <- struct{}{}
	}, logger.Discard())

	l.Navigate("https://www.youtube.com/watch?v=a")
	l.Navigate("https://www.youtube.com/watch?v=b")
	l.Navigate("https://www.youtube.com/watch?v=c")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("navigation reaction never fired")
	}
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "c" {
		t.Errorf("expected only the last navigation to land, got %v", seen)
	}
}

func TestLocator_StopCancelsPending(t *testing.T) {
	fired := make(chan struct{}, 1)
	l := NewLocator(20*time.Millisecond, func(model.VideoID, string) { fired <- struct{}{} }, logger.Discard())

	l.Navigate("https://www.youtube.com/watch?v=a")
	l.Stop()

	select {
	case <-fired:
		t.Error("stopped navigation must not fire")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestExtractMetadata(t *testing.T) {
	html := `<html><body>
		<h1 class="title"> The Moon Landing, Explained </h1>
		<div id="channel-name"><a href="/c/x">Science Channel</a></div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	meta := ExtractMetadata(doc, "vid")
	if meta.Title != "The Moon Landing, Explained" || meta.ChannelName != "Science Channel" || meta.VideoID != "vid" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestExtractMetadata_Defaults(t *testing.T) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	meta := ExtractMetadata(doc, "vid")
	if meta.Title != model.UnknownTitle || meta.ChannelName != model.UnknownChannel {
		t.Errorf("expected defaults, got %+v", meta)
	}
}
