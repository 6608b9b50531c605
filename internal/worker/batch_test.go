package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/pipeline"
	"github.com/ppiankov/lieblocker/internal/video"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeAnalyzer) AnalyzeURL(_ context.Context, rawURL string) (*pipeline.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	if f.fail[rawURL] {
		return nil, errors.New("Transcript extraction failed")
	}
	id, _ := video.ExtractVideoID(rawURL)
	return &pipeline.Result{
		URL:     rawURL,
		VideoID: id,
		Claims:  []model.Claim{{TimestampSeconds: 5, DurationSeconds: 10, ClaimText: "x"}},
	}, nil
}

func watch(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func TestBatchProcessor_KeepsInputOrder(t *testing.T) {
	urls := []string{watch("a"), watch("b"), watch("c"), watch("d"), watch("e")}
	fa := &fakeAnalyzer{fail: map[string]bool{watch("c"): true}}

	var seen int
	var mu sync.Mutex
	results := NewBatchProcessor(fa, 3, NewLimiter(0, 1)).
		OnResult(func(*BatchResult) {
			mu.Lock()
			seen++
			mu.Unlock()
		}).
		ProcessURLs(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] || r.Index != i {
			t.Errorf("result %d is for %s (index %d)", i, r.URL, r.Index)
		}
	}
	if results[2].Error == nil {
		t.Error("expected failure for video c")
	}
	if results[0].Result == nil || results[0].Result.VideoID != "a" {
		t.Errorf("unexpected result for a: %+v", results[0].Result)
	}
	if seen != len(urls) {
		t.Errorf("OnResult called %d times, want %d", seen, len(urls))
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	if got := NewBatchProcessor(&fakeAnalyzer{}, 2, nil).ProcessURLs(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&fakeAnalyzer{}, 1, NewLimiter(0.001, 1)).
		ProcessURLs(ctx, []string{watch("a"), watch("b")})

	for i, r := range results {
		if r == nil || r.Error == nil {
			t.Errorf("result %d: expected an error after cancellation", i)
		}
	}
}

func TestAnalyzeJob_LimiterError(t *testing.T) {
	job := &AnalyzeJob{URL: "no-host", Analyzer: &fakeAnalyzer{}, Limiter: NewLimiter(1, 1)}
	r := job.Execute(context.Background()).(*BatchResult)
	if r.Error == nil || !strings.Contains(r.Error.Error(), "rate limit") {
		t.Errorf("expected rate limit error, got %v", r.Error)
	}
}

func TestReadURLs(t *testing.T) {
	input := `# watch list
https://www.youtube.com/watch?v=abc123

dQw4w9WgXcQ
https://www.youtube.com/watch?v=abc123&t=30s
`
	urls, err := ReadURLs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadURLs: %v", err)
	}
	want := []string{watch("abc123"), watch("dQw4w9WgXcQ")}
	if len(urls) != len(want) {
		t.Fatalf("got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestReadURLs_RejectsNonWatchURL(t *testing.T) {
	if _, err := ReadURLs(strings.NewReader("https://www.youtube.com/feed/trending\n")); err == nil {
		t.Error("expected error for URL without a video ID")
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fa := &fakeAnalyzer{}
	results, err := NewBatchProcessor(fa, 2, nil).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(results) != 2 || len(fa.calls) != 2 {
		t.Errorf("expected 2 analyses, got %d results and %d calls", len(results), len(fa.calls))
	}

	if _, err := NewBatchProcessor(fa, 1, nil).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
