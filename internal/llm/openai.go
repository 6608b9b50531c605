package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

// OpenAIProvider calls the OpenAI chat completions API
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = config.httpClient()

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return string(model.ProviderOpenAI)
}

// Complete sends the conversation and returns the first choice
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	modelName, temperature, maxTokens := p.config.resolve(req)
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", p.apiError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Parse("Unexpected AI response format")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) apiError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.API(p.Name(), apiErr.HTTPStatusCode, apiErr.Message).WithCause(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.API(p.Name(), reqErr.HTTPStatusCode, "").WithCause(err)
	}
	return apperrors.API(p.Name(), 0, err.Error()).WithCause(err)
}
