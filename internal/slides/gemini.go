package slides

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"
)

// GeminiImageConfig holds Gemini image settings.
type GeminiImageConfig struct {
	APIKey string
	Model  string // default "imagen-3.0-generate-002"
}

// GeminiImageProvider generates slides via the Imagen API.
type GeminiImageProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiImageProvider creates a Gemini-backed image provider.
func NewGeminiImageProvider(ctx context.Context, cfg GeminiImageConfig) (*GeminiImageProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "imagen-3.0-generate-002"
	}
	return &GeminiImageProvider{client: client, model: model}, nil
}

func (p *GeminiImageProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", &ErrGeneration{Err: fmt.Errorf("gemini response contains no image")}
	}

	img := resp.GeneratedImages[0].Image
	if img.GCSURI != "" {
		return img.GCSURI, nil
	}

	// The Gemini API returns raw bytes; the TUI only needs a URL-shaped
	// reference, so inline them as a data URI.
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.ImageBytes)), nil
}
