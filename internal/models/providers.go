package models

import (
	"context"
	"errors"
	"fmt"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ollama/ollama/api"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGoogle    = "google"
)

// ProviderConfig selects and configures the chat model. ModelString has the form provider:model.
type ProviderConfig struct {
	ModelString      string
	SystemPrompt     string
	Temperature      float32
	MaxTokens        int
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	GoogleAPIKey     string
	OllamaBaseURL    string
	// ResponseSchema is forwarded to providers with native structured output.
	ResponseSchema *openapi3.Schema
}

const defaultOllamaBaseURL = "http://localhost:11434"

var errInvalidModelString = errors.New("model string must have the form provider:model")

// ParseModelString splits "ollama:qwen3:8b" into ("ollama", "qwen3:8b").
func ParseModelString(modelString string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(modelString), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errInvalidModelString
	}

	provider := strings.ToLower(parts[0])
	switch provider {
	case "claude":
		provider = ProviderAnthropic
	case "gemini":
		provider = ProviderGoogle
	}
	return provider, parts[1], nil
}

func NewChatModel(ctx context.Context, config *ProviderConfig) (model.BaseChatModel, error) {
	provider, modelName, err := ParseModelString(config.ModelString)
	if err != nil {
		return nil, err
	}

	temperature := config.Temperature
	maxTokens := config.MaxTokens

	switch provider {
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.OpenAIAPIKey,
			BaseURL:     config.OpenAIBaseURL,
			Model:       modelName,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
	case ProviderAnthropic:
		var baseURL *string
		if config.AnthropicBaseURL != "" {
			baseURL = &config.AnthropicBaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:      config.AnthropicAPIKey,
			BaseURL:     baseURL,
			Model:       modelName,
			MaxTokens:   maxTokens,
			Temperature: &temperature,
		})
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: ollamaBaseURL(config.OllamaBaseURL),
			Model:   modelName,
			Format:  []byte(`"json"`),
			Options: &api.Options{
				Temperature: temperature,
				NumPredict:  maxTokens,
			},
		})
	case ProviderGoogle:
		return newGeminiChatModel(ctx, config.GoogleAPIKey, modelName, config.ResponseSchema)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}
}

func ollamaBaseURL(configured string) string {
	if configured != "" {
		return configured
	}
	return defaultOllamaBaseURL
}
