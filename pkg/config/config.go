package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/FN90/devops-pr-code-reviewer/internal/filter"
	"github.com/FN90/devops-pr-code-reviewer/internal/github"
	"github.com/FN90/devops-pr-code-reviewer/internal/llm"
	"github.com/FN90/devops-pr-code-reviewer/internal/prompts"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

const (
	EnvLLMAPIKey   = "REVIEWER_LLM_API_KEY"
	EnvGitHubToken = "GITHUB_TOKEN"
)

type Config struct {
	LLM            LLMConfig          `json:"llm"`
	Policy         types.ReviewPolicy `json:"policy"`
	Filter         filter.Rules       `json:"filter"`
	GitHub         github.Config      `json:"github"`
	PromptVariant  string             `json:"promptVariant"`
	MaxInputTokens int                `json:"maxInputTokens"`
}

type LLMConfig struct {
	Provider          string  `json:"provider"`
	Model             string  `json:"model"`
	BaseURL           string  `json:"base_url"`
	APIKey            string  `json:"api_key"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	RequestsPerMinute int     `json:"requests_per_minute"`
}

func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "qwen2.5-coder:7b",
			BaseURL:  "http://localhost:11434",
		},
		Policy:        types.DefaultPolicy(),
		Filter:        filter.DefaultRules(),
		PromptVariant: prompts.DEFAULT_PROMPT,
	}
}

// LoadConfig reads a JSON config file, fills unset keys from Default, applies
// secret overrides from the environment and validates the result.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// LoadOrDefault is LoadConfig, except that a missing file yields the
// defaults with environment overrides applied.
func LoadOrDefault(filename string) (*Config, error) {
	config, err := LoadConfig(filename)
	if !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}

	config, err = Decode(map[string]any{})
	if err != nil {
		return nil, err
	}
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Decode merges raw over the defaults and decodes it into a Config. Unknown
// keys are rejected.
func Decode(raw map[string]any) (*Config, error) {
	defaults, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(merge(defaults, raw)); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(llm.SupportedProviders, c.LLM.Provider) {
		return fmt.Errorf("unsupported llm provider %q (supported: %v)", c.LLM.Provider, llm.SupportedProviders)
	}
	if err := llm.ValidateModel(c.LLM.Model); err != nil {
		return err
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative")
	}
	if m := c.Policy.Confidence.Minimum; m < 0 || m > 1 {
		return fmt.Errorf("policy.confidence.minimum must be between 0 and 1, got %v", m)
	}
	if c.Policy.DedupeAcrossFiles.Threshold < 0 {
		return fmt.Errorf("policy.dedupeAcrossFiles.threshold must not be negative")
	}
	if c.MaxInputTokens < 0 {
		return fmt.Errorf("maxInputTokens must not be negative")
	}
	if _, err := prompts.GetVariant(c.PromptVariant); err != nil {
		return err
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Type:              llm.ProviderType(c.LLM.Provider),
		Model:             c.LLM.Model,
		BaseURL:           c.LLM.BaseURL,
		APIKey:            c.LLM.APIKey,
		Temperature:       c.LLM.Temperature,
		MaxTokens:         c.LLM.MaxTokens,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	return m, nil
}

// merge overlays src on dst. Nested objects merge key by key; every other
// value, lists included, replaces the default.
func merge(dst, src map[string]any) map[string]any {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = merge(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
	return dst
}
