package llm

import (
	"fmt"
)

type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

type ProviderConfig struct {
	Type              ProviderType
	Model             string
	BaseURL           string
	APIKey            string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
}

// NewProvider builds the configured provider, paced when RequestsPerMinute > 0.
func NewProvider(config ProviderConfig) (Provider, error) {
	var provider Provider

	switch config.Type {
	case ProviderOllama:
		provider = NewOllamaProvider(config.BaseURL, config.Model)
	case ProviderOpenAI:
		openai := NewOpenAIProvider(config.BaseURL, config.Model, config.APIKey)
		openai.temperature = config.Temperature
		openai.maxTokens = config.MaxTokens
		provider = openai
	default:
		return nil, fmt.Errorf("unsupported provider type: %s (supported: %v)", config.Type, SupportedProviders)
	}

	if config.RequestsPerMinute > 0 {
		provider = WithRateLimit(provider, config.RequestsPerMinute)
	}

	return provider, nil
}
