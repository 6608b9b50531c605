package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	apperrors "github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

// OpenRouterBaseURL is the OpenAI-compatible OpenRouter endpoint
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider calls OpenRouter through the OpenAI-compatible client
type OpenRouterProvider struct {
	client openai.Client
	config Config
}

// NewOpenRouterProvider creates a new OpenRouter provider
func NewOpenRouterProvider(config Config) *OpenRouterProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}
	referer := config.Referer
	if referer == "" {
		referer = DefaultReferer
	}
	title := config.Title
	if title == "" {
		title = DefaultTitle
	}

	client := openai.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(config.httpClient()),
		option.WithHeader("HTTP-Referer", referer),
		option.WithHeader("X-Title", title),
		option.WithMaxRetries(0),
	)
	return &OpenRouterProvider{client: client, config: config}
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string {
	return string(model.ProviderOpenRouter)
}

// Complete sends the conversation and returns the first choice
func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	modelName, temperature, maxTokens := p.config.resolve(req)
	if modelName == "" {
		modelName = model.DefaultOpenRouterModel
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(modelName),
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apperrors.API(p.Name(), apiErr.StatusCode, apiErr.Message).WithCause(err)
		}
		return "", apperrors.API(p.Name(), 0, err.Error()).WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Parse("Unexpected AI response format")
	}
	return resp.Choices[0].Message.Content, nil
}
