// Package slides turns a narration/description pair from the tutor's
// generate_slide tool call into a displayable slide and persists it.
package slides

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// ImageProvider abstracts the external image generation service: one-shot
// prompt in, image URL out.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ErrGeneration wraps an image service failure. It is always soft: the
// conversation continues without the visual.
type ErrGeneration struct {
	Err error
}

func (e *ErrGeneration) Error() string {
	return fmt.Sprintf("image generation failed: %v", e.Err)
}

func (e *ErrGeneration) Unwrap() error { return e.Err }

// Config selects and configures the image provider.
type Config struct {
	// Provider is one of "fal", "openai", "gemini", "mock".
	Provider string

	Fal    FalConfig
	OpenAI OpenAIImageConfig
	Gemini GeminiImageConfig
}

// DefaultConfig returns the baseline image settings.
func DefaultConfig() Config {
	return Config{
		Provider: "fal",
		Fal:      FalConfig{Model: "fal-ai/flux/dev", ImageSize: "landscape_4_3"},
		OpenAI:   OpenAIImageConfig{Model: "dall-e-3"},
		Gemini:   GeminiImageConfig{Model: "imagen-3.0-generate-002"},
	}
}

// ConfigFromEnv overlays CLIO_IMAGE_* variables on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("CLIO_IMAGE_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	if k := os.Getenv("CLIO_FAL_API_KEY"); k != "" {
		cfg.Fal.APIKey = k
	} else if k := os.Getenv("FAL_KEY"); k != "" {
		cfg.Fal.APIKey = k
	}
	if k := os.Getenv("CLIO_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	} else if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if k := os.Getenv("CLIO_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	} else if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}

	return cfg
}

// NewImageProvider builds the configured provider.
func NewImageProvider(ctx context.Context, cfg Config) (ImageProvider, error) {
	switch cfg.Provider {
	case "fal":
		return NewFalProvider(cfg.Fal)
	case "openai":
		return NewOpenAIImageProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiImageProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockImageProvider(), nil
	default:
		return nil, fmt.Errorf("unknown image provider: %q", cfg.Provider)
	}
}

// MockImageProvider returns canned URLs in FIFO order and records prompts.
type MockImageProvider struct {
	mu      sync.Mutex
	urls    []string
	err     error
	Prompts []string
}

// NewMockImageProvider creates a mock with the given URL queue.
func NewMockImageProvider(urls ...string) *MockImageProvider {
	return &MockImageProvider{urls: urls}
}

// Fail makes every subsequent call return err.
func (m *MockImageProvider) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockImageProvider) GenerateImage(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if m.err != nil {
		return "", &ErrGeneration{Err: m.err}
	}
	if len(m.urls) == 0 {
		return fmt.Sprintf("https://images.example/mock-%d.png", len(m.Prompts)), nil
	}
	url := m.urls[0]
	m.urls = m.urls[1:]
	return url, nil
}
