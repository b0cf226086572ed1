package llm

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider creates a provider for OpenRouter, which speaks the
// OpenAI chat completions protocol.
func NewOpenRouterProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenRouter API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterBaseURL
	}

	var headers []option.RequestOption
	if cfg.HTTPReferer != "" {
		headers = append(headers, option.WithHeader("HTTP-Referer", cfg.HTTPReferer))
	}
	if cfg.AppTitle != "" {
		headers = append(headers, option.WithHeader("X-Title", cfg.AppTitle))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels[ProviderOpenRouter]
	}

	return &OpenAIProvider{
		client: openai.NewClient(openAIOptions(cfg, headers...)...),
		model:  model,
		name:   ProviderOpenRouter,
	}, nil
}
