package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
)

// MaxImageCount is the largest number of images one request may ask for
const MaxImageCount = 10

var allowedSizes = map[string]bool{
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// ImageClient calls an OpenAI-compatible image generation endpoint
type ImageClient struct {
	t     *transport
	model string
}

// NewImageClient creates a client bounded by cfg.ImageTimeout
func NewImageClient(cfg config.OpenAIConfig, opts ...Option) *ImageClient {
	return &ImageClient{
		t:     newTransport(StageImage, cfg.ImageURL, cfg.APIKey, cfg.ImageTimeout, opts),
		model: cfg.ImageModel,
	}
}

// Generate requests count images of the given size and returns the raw
// response body. It blocks for at most the configured image timeout.
func (c *ImageClient) Generate(ctx context.Context, prompt string, count int, size string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, c.t.fail(CauseInvalidRequest, 0, fmt.Errorf("prompt is empty"))
	}
	if count < 1 || count > MaxImageCount {
		return nil, c.t.fail(CauseInvalidRequest, 0, fmt.Errorf("image count %d outside 1..%d", count, MaxImageCount))
	}
	if !allowedSizes[size] {
		return nil, c.t.fail(CauseInvalidRequest, 0, fmt.Errorf("unsupported image size %q", size))
	}

	return c.t.post(ctx, imageRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      count,
		Size:   size,
	})
}
