package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

// GeminiBaseURL is the public Generative Language endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider calls the Gemini generateContent API
type GeminiProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) *GeminiProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}
	return &GeminiProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
	}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return string(model.ProviderGemini)
}

// Complete sends the conversation and returns the first candidate's text.
// Gemini has no system role here: system turns are dropped and assistant
// turns are sent as "model".
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	modelName, temperature, maxTokens := p.config.resolve(req)
	if modelName == "" {
		modelName = model.DefaultGeminiModel
	}

	body := geminiRequest{
		Contents:         geminiContents(req.Messages),
		GenerationConfig: geminiGenerationConfig{Temperature: temperature, MaxOutputTokens: maxTokens},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(modelName), url.QueryEscape(p.config.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.API(p.Name(), 0, redactKey(err.Error(), p.config.APIKey)).WithCause(transportCause(err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.API(p.Name(), resp.StatusCode, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := ""
		if gjson.ValidBytes(raw) {
			upstream = gjson.GetBytes(raw, "error.message").String()
		}
		return "", errors.API(p.Name(), resp.StatusCode, upstream)
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", errors.Parse("Unexpected AI response format")
	}
	return text.String(), nil
}

func geminiContents(messages []Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	return contents
}

// redactKey keeps the key query parameter out of transport errors
// transportCause strips the request URL, which carries the API key, from a
// client error
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func redactKey(msg, key string) string {
	if key == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")
	return strings.ReplaceAll(msg, key, "REDACTED")
}
