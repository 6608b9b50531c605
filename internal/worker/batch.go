package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/pipeline"
	"github.com/ppiankov/lieblocker/internal/video"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Analyzer analyzes a single watch page
type Analyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string) (*pipeline.Result, error)
}

// AnalyzeJob analyzes one URL after the limiter lets it through
type AnalyzeJob struct {
	Index    int
	URL      string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	res := &BatchResult{Index: j.Index, URL: j.URL}
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}
	res.Result, res.Error = j.Analyzer.AnalyzeURL(ctx, j.URL)
	return res
}

// BatchResult is the outcome for one input URL
type BatchResult struct {
	Index  int
	URL    string
	Result *pipeline.Result
	Error  error
}

// GetError returns the analysis error, if any
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many videos concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	log         *slog.Logger
	onResult    func(*BatchResult)
}

// NewBatchProcessor creates a batch processor. limiter may be nil.
func NewBatchProcessor(analyzer Analyzer, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
		log:         logger.Discard(),
	}
}

// WithLogger sets the logger used for per-video progress
func (b *BatchProcessor) WithLogger(log *slog.Logger) *BatchProcessor {
	b.log = logger.OrDefault(log)
	return b
}

// OnResult registers a callback invoked as each video finishes
func (b *BatchProcessor) OnResult(fn func(*BatchResult)) *BatchProcessor {
	b.onResult = fn
	return b
}

// ProcessURLs analyzes urls and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*BatchResult {
	out := make([]*BatchResult, len(urls))
	if len(urls) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, u := range urls {
			job := &AnalyzeJob{Index: i, URL: u, Analyzer: b.analyzer, Limiter: b.limiter}
			if !pool.Submit(job) {
				break
			}
		}
		pool.Close()
	}()

	for r := range pool.Results() {
		br := r.(*BatchResult)
		out[br.Index] = br
		b.report(br)
	}

	// Jobs never started because ctx was cancelled.
	for i, u := range urls {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &BatchResult{Index: i, URL: u, Error: err}
		}
	}
	return out
}

func (b *BatchProcessor) report(r *BatchResult) {
	if r.Error != nil {
		b.log.Warn("analysis failed", "url", r.URL, "error", r.Error)
	} else {
		b.log.Info("analysis done", "video_id", r.Result.VideoID, "lies", len(r.Result.Claims), "cached", r.Result.Cached)
	}
	if b.onResult != nil {
		b.onResult(r)
	}
}

// ProcessFile reads URLs from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads one video per line from a file
func ReadURLsFromFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadURLs(f)
}

// ReadURLs reads one watch URL or bare video ID per line. Blank lines and
// lines starting with # are ignored; repeats of the same video are dropped.
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[model.VideoID]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") {
			line = watchURLPrefix + line
		}

		id, ok := video.ExtractVideoID(line)
		if !ok {
			return nil, fmt.Errorf("no video ID in %q", line)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
