package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/lieblocker/internal/cache"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/util"
)

const maxFetchAttempts = 3

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

// FetchMeta records what the server said about the page
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML      string    `json:"html"`
	Meta      FetchMeta `json:"meta"`
	FinalURL  string    `json:"final_url"`
	FetchedAt time.Time `json:"fetched_at"`
	FromCache bool      `json:"-"`
}

// Fetcher fetches watch pages
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
	onDelay    func(host string, delay time.Duration)
}

// NewFetcher creates a new Fetcher. Proxy settings fall back to the
// environment when empty.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	client := util.NewHTTPClient(timeout, util.ProxyConfig{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	})
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		logger:     slog.Default(),
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, client)
	}
	return f
}

// WithCache keeps fetched pages in c for ttl
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// WithLogger sets the logger
func (f *Fetcher) WithLogger(l *slog.Logger) *Fetcher {
	f.logger = logger.OrDefault(l)
	return f
}

// OnCrawlDelay registers fn to receive robots.txt crawl delays as hosts
// are checked
func (f *Fetcher) OnCrawlDelay(fn func(host string, delay time.Duration)) *Fetcher {
	f.onDelay = fn
	return f
}

// Client returns the underlying HTTP client
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// Fetch retrieves HTML content from the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		policy, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !policy.Allowed {
			return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
		if policy.CrawlDelay > 0 && f.onDelay != nil {
			if u, err := url.Parse(rawURL); err == nil {
				f.onDelay(u.Hostname(), policy.CrawlDelay)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	meta := FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:      string(body),
		Meta:      meta,
		FinalURL:  resp.Request.URL.String(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchWithRetry serves from the page cache when possible and otherwise
// fetches with up to three attempts, backing off 1s then 2s between
// retryable failures.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if cached, ok := f.cached(rawURL); ok {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay, "error", lastErr)
			fetchSleepFunc(delay)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			f.store(rawURL, result)
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) cached(rawURL string) (*FetchResult, bool) {
	if f.cache == nil {
		return nil, false
	}
	raw, ok := f.cache.Get(cache.PageKey(rawURL))
	if !ok {
		return nil, false
	}
	var result FetchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	result.FromCache = true
	return &result, true
}

func (f *Fetcher) store(rawURL string, result *FetchResult) {
	if f.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := f.cache.Set(cache.PageKey(rawURL), raw, f.cacheTTL); err != nil {
		f.logger.Warn("page cache write failed", "url", rawURL, "error", err)
	}
}

// isRetryableFetchError is true for 5xx, 429 and transport failures
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "unexpected status: ") {
		code := strings.TrimPrefix(msg, "unexpected status: ")
		return strings.HasPrefix(code, "5") || strings.HasPrefix(code, "429")
	}
	return strings.HasPrefix(msg, "fetch: ")
}
