package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tidwall/sjson"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

// DefaultTimeout bounds every outbound message
const DefaultTimeout = 5 * time.Second

// Response answers an inbound message
type Response struct {
	Success   bool          `json:"success"`
	Loaded    bool          `json:"loaded,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Lies      []model.Claim `json:"lies,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	Error     string        `json:"error,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// MarshalJSON omits lies only when the response carries none at all; an
// analysis that found nothing still reports "lies": [].
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	data, err := json.Marshal(plain(r))
	if err != nil || r.Lies == nil || len(r.Lies) > 0 {
		return data, err
	}
	return sjson.SetRawBytes(data, "lies", []byte("[]"))
}

// Failure builds an unsuccessful response from err
func Failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Coordinator delivers outbound messages. errors.ErrContextInvalidated means
// the coordinator is gone and the message was dropped.
type Coordinator interface {
	Send(ctx context.Context, m Message) (*Response, error)
}

// HTTPCoordinator posts messages to <base>/messages
type HTTPCoordinator struct {
	baseURL     string
	client      *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	invalidated atomic.Bool
}

// NewHTTPCoordinator creates a client; a zero timeout uses DefaultTimeout
func NewHTTPCoordinator(baseURL string, client *http.Client, timeout time.Duration, log *slog.Logger) *HTTPCoordinator {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPCoordinator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
		logger:  logger.OrDefault(log).With("component", "coordinator"),
	}
}

// Invalidated reports whether the coordinator has gone away for good
func (c *HTTPCoordinator) Invalidated() bool {
	return c.invalidated.Load()
}

func (c *HTTPCoordinator) invalidate(reason string) {
	if c.invalidated.CompareAndSwap(false, true) {
		c.logger.Warn("coordinator context invalidated", "reason", reason)
	}
}

// Send posts m. Once the coordinator is invalidated every call returns
// errors.ErrContextInvalidated without touching the network.
func (c *HTTPCoordinator) Send(ctx context.Context, m Message) (*Response, error) {
	if c.invalidated.Load() {
		return nil, errors.ErrContextInvalidated
	}

	body, err := Encode(m)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			c.invalidate("connection refused")
			return nil, errors.ErrContextInvalidated
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.New("Message timeout")
		}
		return nil, fmt.Errorf("send %s: %w", m.MessageType(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		c.invalidate("coordinator answered 410")
		return nil, errors.ErrContextInvalidated
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("send %s: coordinator returned %d", m.MessageType(), resp.StatusCode)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Response{Success: true}, nil
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// LogCoordinator logs outbound messages; used when no coordinator runs
type LogCoordinator struct {
	logger *slog.Logger
}

func NewLogCoordinator(log *slog.Logger) *LogCoordinator {
	return &LogCoordinator{logger: logger.OrDefault(log)}
}

func (c *LogCoordinator) Send(_ context.Context, m Message) (*Response, error) {
	switch msg := m.(type) {
	case AnalysisProgress:
		c.logger.Info(msg.Message, "stage", msg.Stage)
	case AnalysisResult:
		c.logger.Info(msg.Data)
	case LieSkipped:
		c.logger.Info("lie skipped", "video_id", msg.VideoID, "at", msg.Timestamp, "duration", msg.Duration)
	default:
		c.logger.Debug("outbound message", "type", m.MessageType())
	}
	return nil, nil
}

// NopCoordinator drops everything
type NopCoordinator struct{}

func (NopCoordinator) Send(context.Context, Message) (*Response, error) { return nil, nil }

// Recorder keeps every outbound message; handy for the replay command and tests
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Reply    func(Message) *Response
}

func (r *Recorder) Send(_ context.Context, m Message) (*Response, error) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	reply := r.Reply
	r.mu.Unlock()
	if reply != nil {
		return reply(m), nil
	}
	return nil, nil
}

// Messages returns a copy of what was sent
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
