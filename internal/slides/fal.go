package slides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

const falBaseURL = "https://fal.run"

// FalConfig holds fal.ai settings.
type FalConfig struct {
	APIKey    string
	Model     string // default "fal-ai/flux/dev"
	ImageSize string // default "landscape_4_3"
	BaseURL   string // test override
}

// FalProvider calls the fal.ai image endpoint the original service used.
// fal has no Go SDK, so this is a plain HTTP client.
type FalProvider struct {
	cfg    FalConfig
	client *http.Client
}

// NewFalProvider creates a fal.ai-backed provider.
func NewFalProvider(cfg FalConfig) (*FalProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fal API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = falBaseURL
	}
	return &FalProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type falRequest struct {
	Input falInput `json:"input"`
}

type falInput struct {
	Prompt    string `json:"prompt"`
	Seed      int    `json:"seed"`
	ImageSize string `json:"image_size"`
	NumImages int    `json:"num_images"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (p *FalProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(falRequest{Input: falInput{
		Prompt:    prompt,
		Seed:      rand.IntN(1000000),
		ImageSize: p.cfg.ImageSize,
		NumImages: 1,
	}})
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/"+p.cfg.Model, bytes.NewReader(body))
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}
	req.Header.Set("Authorization", "Key "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ErrGeneration{Err: fmt.Errorf("fal API error: %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}

	var out falResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ErrGeneration{Err: fmt.Errorf("decode fal response: %w", err)}
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return "", &ErrGeneration{Err: fmt.Errorf("fal response contains no image")}
	}

	return out.Images[0].URL, nil
}
