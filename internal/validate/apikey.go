// Package validate checks user settings and API key formats before any
// backend is called.
package validate

import (
	"strings"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

const minKeyLength = 20

// APIKey reports whether key looks like a key for provider.
// Format only: nothing is sent upstream.
func APIKey(provider model.AIProvider, key string) bool {
	switch provider {
	case model.ProviderOpenAI:
		return strings.HasPrefix(key, "sk-") && len(key) > minKeyLength
	case model.ProviderGemini:
		return len(key) > minKeyLength
	case model.ProviderOpenRouter:
		return strings.HasPrefix(key, "sk-or-") && len(key) > minKeyLength
	default:
		return false
	}
}

// RequireAPIKey returns the configuration error shown to the user for a
// missing or malformed key
func RequireAPIKey(provider model.AIProvider, key string) error {
	if key == "" {
		return errors.Config("AI API key not configured")
	}
	if !APIKey(provider, key) {
		return errors.Configf("Invalid %s API key format", provider)
	}
	return nil
}
