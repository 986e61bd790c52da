package slides

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIImageConfig holds OpenAI image settings.
type OpenAIImageConfig struct {
	APIKey string
	Model  string // default "dall-e-3"
}

// OpenAIImageProvider generates slides via the OpenAI images API.
type OpenAIImageProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIImageProvider creates an OpenAI-backed image provider.
func NewOpenAIImageProvider(cfg OpenAIImageConfig) (*OpenAIImageProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "dall-e-3"
	}
	return &OpenAIImageProvider{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

func (p *OpenAIImageProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.model,
		N:              1,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", &ErrGeneration{Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &ErrGeneration{Err: fmt.Errorf("openai response contains no image")}
	}
	return resp.Data[0].URL, nil
}
