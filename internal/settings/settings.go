// Package settings loads the analysis settings from a secure source for
// the API key and a plain key/value store for everything else.
package settings

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/validate"
)

// Plain store keys
const (
	KeyAIProvider             = "ai_provider"
	KeyOpenAIModel            = "openai_model"
	KeyGeminiModel            = "gemini_model"
	KeyOpenRouterModel        = "openrouter_model"
	KeyAPIKey                 = "api_key"
	KeyAnalysisDuration       = "analysis_duration"
	KeyMinConfidenceThreshold = "min_confidence_threshold"
	KeySkipLiesEnabled        = "skip_lies_enabled"
)

// EnvAPIKey is checked before the provider-specific variables
const EnvAPIKey = "LIEBLOCKER_API_KEY"

// Provider supplies settings to the analysis flow
type Provider interface {
	GetSettings(ctx context.Context) (model.Settings, error)
}

// SecureSource holds credentials
type SecureSource interface {
	APIKey(ctx context.Context, provider model.AIProvider) (string, error)
}

// PlainSource holds the non-secret settings
type PlainSource interface {
	Plain(ctx context.Context) (Plain, error)
}

// Plain is the raw content of the plain store
type Plain struct {
	AIProvider             string
	OpenAIModel            string
	GeminiModel            string
	OpenRouterModel        string
	APIKey                 string
	AnalysisDuration       int
	MinConfidenceThreshold int
	SkipLiesEnabled        bool
}

// Merged combines a secure and a plain source. A failing source is
// logged and treated as empty.
type Merged struct {
	Secure SecureSource
	Plain  PlainSource
	Logger *slog.Logger
}

// GetSettings merges both sources, applies defaults and validates the result.
func (m *Merged) GetSettings(ctx context.Context) (model.Settings, error) {
	log := logger.OrDefault(m.Logger)

	var plain Plain
	if m.Plain != nil {
		p, err := m.Plain.Plain(ctx)
		if err != nil {
			log.Warn("could not load plain settings", "error", err)
		} else {
			plain = p
		}
	}

	s := resolve(plain)

	if m.Secure != nil {
		key, err := m.Secure.APIKey(ctx, s.AIProvider)
		if err != nil {
			log.Warn("could not load secure settings", "error", err)
		} else if key != "" {
			s.APIKey = key
		}
	}

	switch s.AIProvider {
	case model.ProviderOpenAI, model.ProviderGemini, model.ProviderOpenRouter:
	default:
		return s, errors.Configf("Unsupported AI provider: %s", s.AIProvider)
	}
	if err := validate.Settings(s); err != nil {
		return s, err
	}
	return s, nil
}

// SkipLiesEnabled reads only the skip flag
func (m *Merged) SkipLiesEnabled(ctx context.Context) bool {
	if m.Plain == nil {
		return false
	}
	p, err := m.Plain.Plain(ctx)
	if err != nil {
		logger.OrDefault(m.Logger).Warn("could not load skip setting", "error", err)
		return false
	}
	return p.SkipLiesEnabled
}

func resolve(p Plain) model.Settings {
	provider := model.AIProvider(strings.ToLower(strings.TrimSpace(p.AIProvider)))
	if provider == "" {
		provider = model.ProviderOpenAI
	}

	s := model.Settings{
		AIProvider:              provider,
		APIKey:                  strings.TrimSpace(p.APIKey),
		AnalysisDurationMinutes: p.AnalysisDuration,
		MinConfidenceThreshold:  p.MinConfidenceThreshold,
		SkipLiesEnabled:         p.SkipLiesEnabled,
	}
	switch provider {
	case model.ProviderOpenAI:
		s.AIModel = or(p.OpenAIModel, model.DefaultOpenAIModel)
	case model.ProviderGemini:
		s.AIModel = or(p.GeminiModel, model.DefaultGeminiModel)
	case model.ProviderOpenRouter:
		s.AIModel = or(p.OpenRouterModel, model.DefaultOpenRouterModel)
	}
	if s.AnalysisDurationMinutes == 0 {
		s.AnalysisDurationMinutes = model.DefaultAnalysisDurationMinutes
	}
	if s.MinConfidenceThreshold == 0 {
		s.MinConfidenceThreshold = model.DefaultMinConfidenceThreshold
	}
	return s
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

// EnvSource reads the API key from the environment
type EnvSource struct {
	Lookup func(string) (string, bool)
}

// NewEnvSource reads the process environment
func NewEnvSource() *EnvSource {
	return &EnvSource{Lookup: os.LookupEnv}
}

func (e *EnvSource) APIKey(_ context.Context, provider model.AIProvider) (string, error) {
	names := []string{EnvAPIKey}
	switch provider {
	case model.ProviderOpenAI:
		names = append(names, "OPENAI_API_KEY")
	case model.ProviderGemini:
		names = append(names, "GEMINI_API_KEY")
	case model.ProviderOpenRouter:
		names = append(names, "OPENROUTER_API_KEY")
	}
	for _, name := range names {
		if v, ok := e.Lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

// ViperSource reads the plain settings from a viper instance
type ViperSource struct {
	v      *viper.Viper
	prefix string
}

// NewViperSource wraps v; keys are looked up under prefix when it is non-empty
func NewViperSource(v *viper.Viper, prefix string) *ViperSource {
	return &ViperSource{v: v, prefix: prefix}
}

func (s *ViperSource) Plain(context.Context) (Plain, error) {
	key := func(k string) string {
		if s.prefix == "" {
			return k
		}
		return s.prefix + "." + k
	}
	return Plain{
		AIProvider:             s.v.GetString(key(KeyAIProvider)),
		OpenAIModel:            s.v.GetString(key(KeyOpenAIModel)),
		GeminiModel:            s.v.GetString(key(KeyGeminiModel)),
		OpenRouterModel:        s.v.GetString(key(KeyOpenRouterModel)),
		APIKey:                 s.v.GetString(key(KeyAPIKey)),
		AnalysisDuration:       s.v.GetInt(key(KeyAnalysisDuration)),
		MinConfidenceThreshold: s.v.GetInt(key(KeyMinConfidenceThreshold)),
		SkipLiesEnabled:        s.v.GetBool(key(KeySkipLiesEnabled)),
	}, nil
}

// SetDefaults registers the plain defaults on v under prefix
func SetDefaults(v *viper.Viper, prefix string) {
	key := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	v.SetDefault(key(KeyAIProvider), string(model.ProviderOpenAI))
	v.SetDefault(key(KeyOpenAIModel), model.DefaultOpenAIModel)
	v.SetDefault(key(KeyGeminiModel), model.DefaultGeminiModel)
	v.SetDefault(key(KeyOpenRouterModel), model.DefaultOpenRouterModel)
	v.SetDefault(key(KeyAnalysisDuration), model.DefaultAnalysisDurationMinutes)
	v.SetDefault(key(KeyMinConfidenceThreshold), model.DefaultMinConfidenceThreshold)
	v.SetDefault(key(KeySkipLiesEnabled), false)
}

// Static returns fixed settings
type Static model.Settings

func (s Static) GetSettings(context.Context) (model.Settings, error) {
	return model.Settings(s), nil
}
