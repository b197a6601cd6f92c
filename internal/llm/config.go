package llm

import (
	"fmt"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Config holds LLM provider configuration. Field tags match the llm.* keys
// of the application config.
type Config struct {
	Provider   string         `mapstructure:"provider"`
	Anthropic  EndpointConfig `mapstructure:"anthropic"`
	OpenAI     EndpointConfig `mapstructure:"openai"`
	OpenRouter EndpointConfig `mapstructure:"openrouter"`
	Gemini     EndpointConfig `mapstructure:"gemini"`
	Retry      RetryConfig    `mapstructure:"retry"`

	// Timeout bounds a single grading call, retries included.
	Timeout time.Duration `mapstructure:"timeout"`
}

// EndpointConfig is the per-provider credential and model selection.
// BaseURL is honored by the OpenAI-compatible providers only.
type EndpointConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderMock,
		Anthropic:  EndpointConfig{Model: "claude-haiku"},
		OpenAI:     EndpointConfig{Model: "gpt-4o-mini"},
		OpenRouter: EndpointConfig{Model: "google/gemini-2.0-flash-exp", BaseURL: openRouterBaseURL},
		Gemini:     EndpointConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	var ep EndpointConfig
	switch c.Provider {
	case ProviderAnthropic:
		ep = c.Anthropic
	case ProviderOpenAI:
		ep = c.OpenAI
	case ProviderOpenRouter:
		ep = c.OpenRouter
	case ProviderGemini:
		ep = c.Gemini
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if ep.APIKey == "" {
		return fmt.Errorf("llm.%s.api_key is required for the %s provider", c.Provider, c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// modelAliases maps friendly names to provider model IDs. Unknown names
// pass through unchanged so direct model IDs work.
var modelAliases = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"gemini-flash":  "gemini-2.0-flash",
	"gemini-pro":    "gemini-2.0-pro",
}

func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}
