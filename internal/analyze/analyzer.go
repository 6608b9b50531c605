package analyze

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/llm"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/score"
	"github.com/ppiankov/lieblocker/internal/validate"
)

// ProviderFactory creates the backend for one run
type ProviderFactory func(llm.Config) (llm.Provider, error)

// Analyzer runs one claim-detection pass over a transcript
type Analyzer struct {
	newProvider ProviderFactory
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithProviderFactory replaces llm.NewProvider
func WithProviderFactory(f ProviderFactory) Option {
	return func(a *Analyzer) { a.newProvider = f }
}

// WithHTTPClient sets the client handed to the backends
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) { a.httpClient = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{newProvider: llm.NewProvider}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrDefault(a.logger).With("component", "analyze")
	return a
}

// Analyze validates the key, sends the excerpt to the configured backend and
// returns the claims that clear the confidence threshold.
// An unreadable model reply is a successful run with no claims.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, meta model.VideoMetadata, settings model.Settings) (*model.AnalysisResult, error) {
	if err := validate.RequireAPIKey(settings.AIProvider, settings.APIKey); err != nil {
		return nil, err
	}

	minutes := settings.AnalysisDurationMinutes
	if minutes <= 0 {
		minutes = model.DefaultAnalysisDurationMinutes
	}

	provider, err := a.newProvider(llm.ConfigFromSettings(settings, a.httpClient))
	if err != nil {
		return nil, err
	}

	excerpt := TruncateTranscript(transcript, minutes)
	messages := llm.BuildMessages(minutes, settings.ThresholdFraction(), excerpt)

	a.logger.Info("sending transcript for analysis",
		"provider", provider.Name(),
		"model", settings.AIModel,
		"video_id", meta.VideoID,
		"chars", len(excerpt))

	result := &model.AnalysisResult{AnalysisDurationMinutes: minutes}

	content, err := provider.Complete(ctx, llm.CompletionRequest{Messages: messages, Model: settings.AIModel})
	if err != nil {
		if !errors.Is(err, errors.ErrParse) {
			return nil, err
		}
		a.logger.Warn("unreadable AI response envelope", "provider", provider.Name(), "error", err)
		result.Unparseable = true
		result.Lies = []model.Claim{}
		return result, nil
	}

	claims, err := ParseResponse(content)
	if err != nil {
		a.logger.Warn("failed to parse AI response", "provider", provider.Name(), "error", err)
		result.Unparseable = true
		claims = []model.Claim{}
	}

	result.Lies = score.FilterByConfidence(claims, settings.MinConfidenceThreshold)
	result.TotalLies = len(result.Lies)

	a.logger.Info("analysis finished",
		"video_id", meta.VideoID,
		"parsed", len(claims),
		"kept", result.TotalLies,
		"threshold", settings.MinConfidenceThreshold)
	return result, nil
}
