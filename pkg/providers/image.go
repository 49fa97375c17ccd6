package providers

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/ngx29/BotTelegram/pkg/config"
	"github.com/ngx29/BotTelegram/pkg/logger"
)

// Image is the artifact of one generation call. Exactly one field is set:
// URL when the provider returned a hosted image, Data when it returned the
// image inline (already base64-decoded here).
type Image struct {
	URL  string
	Data []byte
}

type ImageClient struct {
	client openai.Client
	size   string
}

func NewImageClient(cfg config.OpenAIConfig) *ImageClient {
	return &ImageClient{
		client: newClient(cfg),
		size:   cfg.ImageSize,
	}
}

// Generate requests a single image for prompt.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (Image, error) {
	logger.DebugCF("provider", "Image generation request", map[string]interface{}{
		"size":          c.size,
		"prompt_length": len(prompt),
	})

	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Size:   openai.ImageGenerateParamsSize(c.size),
	}
	params.N = param.NewOpt(int64(1))

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return Image{}, fmt.Errorf("image generation failed: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return Image{}, fmt.Errorf("image generation returned no data")
	}

	first := resp.Data[0]
	if first.URL != "" {
		return Image{URL: first.URL}, nil
	}
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return Image{}, fmt.Errorf("failed to decode inline image payload: %w", err)
		}
		return Image{Data: data}, nil
	}
	return Image{}, fmt.Errorf("image generation returned neither url nor payload")
}
