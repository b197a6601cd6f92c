package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/polegion/internal/logging"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → base, so every attempt is logged.
func NewProvider(ctx context.Context, cfg Config, log *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		ep := cfg.OpenRouter
		if ep.BaseURL == "" {
			ep.BaseURL = openRouterBaseURL
		}
		base, err = NewOpenAIProvider(ep)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}
