package config

import (
	"os"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_test_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configJSON  string
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "minimal config",
			configJSON: `{
				"llm": {
					"provider": "ollama",
					"model": "qwen2.5-coder",
					"base_url": "http://localhost:11434"
				}
			}`,
			check: func(t *testing.T, c *Config) {
				if c.LLM.Provider != "ollama" {
					t.Errorf("Expected provider ollama, got %s", c.LLM.Provider)
				}
				if c.LLM.Model != "qwen2.5-coder" {
					t.Errorf("Expected model qwen2.5-coder, got %s", c.LLM.Model)
				}
				if c.LLM.BaseURL != "http://localhost:11434" {
					t.Errorf("Expected base_url http://localhost:11434, got %s", c.LLM.BaseURL)
				}
			},
		},
		{
			name:       "empty config uses defaults",
			configJSON: `{}`,
			check: func(t *testing.T, c *Config) {
				want := Default()
				if !reflect.DeepEqual(*c, want) {
					t.Errorf("Expected defaults %+v, got %+v", want, *c)
				}
			},
		},
		{
			name: "partial policy keeps other defaults",
			configJSON: `{
				"policy": {
					"confidence": {"enabled": true},
					"dedupeAcrossFiles": {"enabled": true, "threshold": 2}
				}
			}`,
			check: func(t *testing.T, c *Config) {
				if !c.Policy.Confidence.Enabled {
					t.Error("Expected confidence filtering enabled")
				}
				if c.Policy.Confidence.Minimum != 0.5 {
					t.Errorf("Expected default minimum 0.5, got %v", c.Policy.Confidence.Minimum)
				}
				if !c.Policy.DedupeAcrossFiles.Enabled || c.Policy.DedupeAcrossFiles.Threshold != 2 {
					t.Errorf("Unexpected cross-file settings %+v", c.Policy.DedupeAcrossFiles)
				}
				if !c.Policy.Checks.Bugs || !c.Policy.Checks.BestPractices {
					t.Errorf("Expected default checks to stay enabled, got %+v", c.Policy.Checks)
				}
			},
		},
		{
			name:       "exclude list replaces defaults",
			configJSON: `{"filter": {"exclude": ["**/*.pb.go"]}}`,
			check: func(t *testing.T, c *Config) {
				if !reflect.DeepEqual(c.Filter.Exclude, []string{"**/*.pb.go"}) {
					t.Errorf("Expected exclude to be replaced, got %v", c.Filter.Exclude)
				}
				if !c.Filter.SkipBinary {
					t.Error("Expected skipBinary default to be kept")
				}
			},
		},
		{
			name: "openai with rate limit",
			configJSON: `{
				"llm": {
					"provider": "openai",
					"model": "gpt-4o-mini",
					"base_url": "https://api.openai.com",
					"temperature": 0.2,
					"max_tokens": 2048,
					"requests_per_minute": "30"
				},
				"github": {"repository": "acme/widgets"},
				"maxInputTokens": 12000
			}`,
			check: func(t *testing.T, c *Config) {
				pc := c.ProviderConfig()
				if string(pc.Type) != "openai" || pc.Model != "gpt-4o-mini" {
					t.Errorf("Unexpected provider config %+v", pc)
				}
				if pc.Temperature != 0.2 || pc.MaxTokens != 2048 || pc.RequestsPerMinute != 30 {
					t.Errorf("Unexpected provider tuning %+v", pc)
				}
				if c.GitHub.Repository != "acme/widgets" {
					t.Errorf("Expected repository acme/widgets, got %s", c.GitHub.Repository)
				}
				if c.MaxInputTokens != 12000 {
					t.Errorf("Expected maxInputTokens 12000, got %d", c.MaxInputTokens)
				}
			},
		},
		{
			name:        "invalid json",
			configJSON:  `{"invalid": json}`,
			expectError: true,
		},
		{
			name:        "unknown key",
			configJSON:  `{"llm": {"provider": "ollama", "modle": "x"}}`,
			expectError: true,
		},
		{
			name:        "unsupported provider",
			configJSON:  `{"llm": {"provider": "anthropic"}}`,
			expectError: true,
		},
		{
			name:        "problematic model",
			configJSON:  `{"llm": {"provider": "ollama", "model": "codellama:13b"}}`,
			expectError: true,
		},
		{
			name:        "confidence minimum out of range",
			configJSON:  `{"policy": {"confidence": {"minimum": 1.5}}}`,
			expectError: true,
		},
		{
			name:        "negative threshold",
			configJSON:  `{"policy": {"dedupeAcrossFiles": {"threshold": -1}}}`,
			expectError: true,
		},
		{
			name:        "unknown prompt variant",
			configJSON:  `{"promptVariant": "nope"}`,
			expectError: true,
		},
		{
			name:        "bad glob",
			configJSON:  `{"filter": {"include": ["src/[a-"]}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLLMAPIKey, "")
			t.Setenv(EnvGitHubToken, "")

			config, err := LoadConfig(writeConfig(t, tt.configJSON))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "sk-env")
	t.Setenv(EnvGitHubToken, "ghp-env")

	config, err := LoadConfig(writeConfig(t, `{"llm": {"provider": "openai", "api_key": "sk-file"}}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if config.LLM.APIKey != "sk-env" {
		t.Errorf("Expected api key from environment, got %s", config.LLM.APIKey)
	}
	if config.GitHub.Token != "ghp-env" {
		t.Errorf("Expected github token from environment, got %s", config.GitHub.Token)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("nonexistent.json")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "")
	t.Setenv(EnvGitHubToken, "ghp-env")

	config, err := LoadOrDefault("nonexistent.json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if config.LLM.Provider != Default().LLM.Provider {
		t.Errorf("Expected default provider, got %s", config.LLM.Provider)
	}
	if config.GitHub.Token != "ghp-env" {
		t.Errorf("Expected github token from environment, got %s", config.GitHub.Token)
	}

	if _, err := LoadOrDefault(writeConfig(t, `{"llm": {"provider": "nope"}}`)); err == nil {
		t.Error("Expected error for invalid existing file")
	}
}
