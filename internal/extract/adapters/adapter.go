// Package adapters holds the transcript extraction strategies and the
// ordered registry that falls through them.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/extract"
	"github.com/ppiankov/lieblocker/internal/logger"
)

// Default timings for a strategy run
const (
	DefaultSettleDelay     = 3 * time.Second
	DefaultStrategyTimeout = 15 * time.Second
)

// Strategy is one way of reading the transcript off a watch page
type Strategy interface {
	// Name returns the strategy name used in logs and errors
	Name() string

	// Extract returns the transcript text, or an error when this strategy
	// cannot produce one longer than extract.MinTranscriptLength
	Extract(ctx context.Context, page extract.Page) (string, error)
}

// Options tune the registry and the built-in strategies
type Options struct {
	SettleDelay     time.Duration
	StrategyTimeout time.Duration
	Logger          *slog.Logger
}

// Registry runs strategies in order until one succeeds
type Registry struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRegistry creates a registry with the built-in strategies:
// auto-generated, manual, then generic.
// A negative SettleDelay disables the wait; zero uses the default.
func NewRegistry(opts Options) *Registry {
	settle := opts.SettleDelay
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	if settle < 0 {
		settle = 0
	}
	timeout := opts.StrategyTimeout
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}

	registry := &Registry{
		timeout: timeout,
		logger:  logger.OrDefault(opts.Logger).With("component", "extract"),
	}
	registry.Register(NewAutoGeneratedStrategy(settle))
	registry.Register(NewManualStrategy())
	registry.Register(NewGenericStrategy(settle))
	return registry
}

// NewEmptyRegistry creates a registry without strategies
func NewEmptyRegistry(timeout time.Duration, log *slog.Logger) *Registry {
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}
	return &Registry{timeout: timeout, logger: logger.OrDefault(log)}
}

// Register appends a strategy to the fallback chain
func (r *Registry) Register(strategy Strategy) {
	r.strategies = append(r.strategies, strategy)
}

// Strategies returns the registered strategy names in order
func (r *Registry) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the first transcript a strategy produces.
// Strategy failures are logged and skipped; when every strategy fails the
// result is an ExtractionFailed error wrapping each cause.
func (r *Registry) Extract(ctx context.Context, page extract.Page) (string, error) {
	causes := make([]error, 0, len(r.strategies))

	for _, strategy := range r.strategies {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			break
		}

		r.logger.Debug("trying transcript strategy", "strategy", strategy.Name())
		text, err := r.run(ctx, strategy, page)
		if err == nil && !extract.LongEnough(text) {
			err = fmt.Errorf("%s transcript too short", strategy.Name())
		}
		if err != nil {
			r.logger.Info("transcript strategy failed", "strategy", strategy.Name(), "error", err)
			causes = append(causes, err)
			continue
		}

		r.logger.Info("transcript extracted", "strategy", strategy.Name(), "chars", len(text))
		return text, nil
	}

	return "", errors.ExtractionFailed(causes...)
}

func (r *Registry) run(ctx context.Context, strategy Strategy, page extract.Page) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := strategy.Extract(sctx, page)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%s transcript extraction timeout: %w", strategy.Name(), err)
	}
	return text, err
}
