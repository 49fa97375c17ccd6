package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/ngx29/BotTelegram/pkg/config"
	"github.com/ngx29/BotTelegram/pkg/logger"
)

// ChatClient wraps one conversational completion call per prompt. There is
// no history; every prompt stands alone.
type ChatClient struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewChatClient(cfg config.OpenAIConfig) *ChatClient {
	return &ChatClient{
		client:      newClient(cfg),
		model:       cfg.ChatModel,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Chat sends prompt as a single user message and returns the trimmed text of
// the first completion choice.
func (c *ChatClient) Chat(ctx context.Context, prompt string) (string, error) {
	logger.DebugCF("provider", "Chat completion request", map[string]interface{}{
		"model":         c.model,
		"prompt_length": len(prompt),
	})

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	params.MaxTokens = param.NewOpt(c.maxTokens)
	params.Temperature = param.NewOpt(c.temperature)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
