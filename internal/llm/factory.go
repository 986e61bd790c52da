package llm

import (
	"context"
	"fmt"
)

// NewProvider builds the configured base provider and wraps it with the
// retry and recording middleware (caller → retry → record → base).
func NewProvider(ctx context.Context, cfg Config, rec Recorder) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithRecording(base, rec), cfg.Retry), nil
}

// NewProviderFromEnv builds a provider from CLIO_* variables, falling back
// to discovery of the standard API key variables.
func NewProviderFromEnv(ctx context.Context, rec Recorder) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, rec)
}
