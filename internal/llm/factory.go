package llm

import (
	"strings"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

// NewProvider creates the backend named by config.Provider
func NewProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.Config("AI API key not configured")
	}

	switch model.AIProvider(strings.ToLower(string(config.Provider))) {
	case model.ProviderOpenAI:
		return NewOpenAIProvider(config), nil
	case model.ProviderGemini:
		return NewGeminiProvider(config), nil
	case model.ProviderOpenRouter:
		return NewOpenRouterProvider(config), nil
	default:
		return nil, errors.Configf("Unsupported AI provider: %s", config.Provider)
	}
}
