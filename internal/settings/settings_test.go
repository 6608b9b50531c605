package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

func env(vars map[string]string) *EnvSource {
	return &EnvSource{Lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}
}

func plainViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v, "settings")
	for k, val := range values {
		v.Set("settings."+k, val)
	}
	return v
}

type failingPlain struct{}

func (failingPlain) Plain(context.Context) (Plain, error) { return Plain{}, errors.New("storage unavailable") }

func TestMerged_Defaults(t *testing.T) {
	m := &Merged{Secure: env(nil), Plain: NewViperSource(plainViper(nil), "settings"), Logger: logger.Discard()}
	s, err := m.GetSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.ProviderOpenAI, s.AIProvider)
	assert.Equal(t, "gpt-4o-mini", s.AIModel)
	assert.Equal(t, 20, s.AnalysisDurationMinutes)
	assert.Equal(t, 85, s.MinConfidenceThreshold)
	assert.False(t, s.SkipLiesEnabled)
	assert.Empty(t, s.APIKey)
}

func TestMerged_ModelFollowsProvider(t *testing.T) {
	tests := map[string]string{
		"openai":     "gpt-4o",
		"gemini":     "gemini-1.5-pro",
		"openrouter": "anthropic/claude-3.5-sonnet",
	}
	for provider, modelName := range tests {
		t.Run(provider, func(t *testing.T) {
			v := plainViper(map[string]any{
				KeyAIProvider:      provider,
				KeyOpenAIModel:     "gpt-4o",
				KeyGeminiModel:     "gemini-1.5-pro",
				KeyOpenRouterModel: "anthropic/claude-3.5-sonnet",
			})
			s, err := (&Merged{Plain: NewViperSource(v, "settings")}).GetSettings(context.Background())
			require.NoError(t, err)
			assert.Equal(t, modelName, s.AIModel)
		})
	}
}

func TestMerged_SecureKeyWins(t *testing.T) {
	v := plainViper(map[string]any{KeyAIProvider: "gemini", KeyAPIKey: "plain-key"})
	m := &Merged{Plain: NewViperSource(v, "settings")}

	s, err := m.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain-key", s.APIKey)

	m.Secure = env(map[string]string{"GEMINI_API_KEY": "AIza-provider", "OPENAI_API_KEY": "sk-other"})
	s, err = m.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AIza-provider", s.APIKey)

	m.Secure = env(map[string]string{"GEMINI_API_KEY": "AIza-provider", EnvAPIKey: "  AIza-generic  "})
	s, err = m.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AIza-generic", s.APIKey)
}

func TestMerged_UnsupportedProvider(t *testing.T) {
	v := plainViper(map[string]any{KeyAIProvider: "claude"})
	_, err := (&Merged{Plain: NewViperSource(v, "settings")}).GetSettings(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	assert.Equal(t, "Unsupported AI provider: claude", err.Error())
}

func TestMerged_OutOfRange(t *testing.T) {
	v := plainViper(map[string]any{KeyMinConfidenceThreshold: 150})
	_, err := (&Merged{Plain: NewViperSource(v, "settings")}).GetSettings(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "MinConfidenceThreshold"))
}

func TestMerged_FailingPlainFallsBackToDefaults(t *testing.T) {
	m := &Merged{Secure: env(map[string]string{EnvAPIKey: "sk-abc"}), Plain: failingPlain{}, Logger: logger.Discard()}
	s, err := m.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ProviderOpenAI, s.AIProvider)
	assert.Equal(t, "sk-abc", s.APIKey)
	assert.False(t, m.SkipLiesEnabled(context.Background()))
}

func TestMerged_SkipLiesEnabled(t *testing.T) {
	v := plainViper(map[string]any{KeySkipLiesEnabled: true})
	m := &Merged{Plain: NewViperSource(v, "settings")}
	assert.True(t, m.SkipLiesEnabled(context.Background()))
}

func TestStatic(t *testing.T) {
	want := model.Settings{AIProvider: model.ProviderGemini, AIModel: "m"}
	got, err := Static(want).GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
