// Package llm talks to the claim-detection backends.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/ppiankov/lieblocker/internal/model"
)

// Provider sends a chat completion to one AI backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete returns the text of the first choice
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn
type Message struct {
	Role    string
	Content string
}

// CompletionRequest contains the input for one backend call
type CompletionRequest struct {
	Messages []Message

	// Model overrides Config.Model when set
	Model string

	// Temperature and MaxTokens override the Config values when non-zero
	Temperature float64
	MaxTokens   int
}

// Config holds provider configuration
type Config struct {
	Provider model.AIProvider
	Model    string
	APIKey   string

	// BaseURL replaces the public endpoint (tests, gateways)
	BaseURL string

	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	// HTTPClient carries proxy settings; nil uses a default client
	HTTPClient *http.Client

	// Referer and Title identify the app to OpenRouter
	Referer string
	Title   string
}

// Request defaults
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4000
	DefaultTimeout     = 60 * time.Second
	DefaultReferer     = "https://lieblocker.extension"
	DefaultTitle       = "LieBlocker Extension"
)

// DefaultConfig returns request defaults with no provider selected
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Referer:     DefaultReferer,
		Title:       DefaultTitle,
	}
}

// ConfigFromSettings builds a provider config from user settings
func ConfigFromSettings(settings model.Settings, client *http.Client) Config {
	cfg := DefaultConfig()
	cfg.Provider = settings.AIProvider
	cfg.Model = settings.AIModel
	cfg.APIKey = settings.APIKey
	cfg.HTTPClient = client
	return cfg
}

func (c Config) resolve(req CompletionRequest) (modelName string, temperature float64, maxTokens int) {
	modelName = req.Model
	if modelName == "" {
		modelName = c.Model
	}
	temperature = req.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	return modelName, temperature, maxTokens
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
