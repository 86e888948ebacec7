package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
)

// Message is one entry of a chat completion conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelParams are the sampling parameters of a chat completion. They are
// validated when the configuration is loaded.
type ModelParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	ChoiceCount int
}

// ParamsFromConfig copies the chat parameters out of the loaded configuration
func ParamsFromConfig(cfg config.OpenAIConfig) ModelParams {
	return ModelParams{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		ChoiceCount: cfg.ChoiceCount,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	N           int       `json:"n"`
}

// ChatClient calls an OpenAI-compatible chat completions endpoint
type ChatClient struct {
	t *transport
}

// NewChatClient creates a client bounded by cfg.ChatTimeout
func NewChatClient(cfg config.OpenAIConfig, opts ...Option) *ChatClient {
	return &ChatClient{
		t: newTransport(StageChat, cfg.ChatURL, cfg.APIKey, cfg.ChatTimeout, opts),
	}
}

// Complete sends one completion request and returns the raw response body.
func (c *ChatClient) Complete(ctx context.Context, prompt, systemMessage string, params ModelParams) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, c.t.fail(CauseInvalidRequest, 0, errors.New("prompt is empty"))
	}

	messages := make([]Message, 0, 2)
	if systemMessage != "" {
		messages = append(messages, Message{Role: "system", Content: systemMessage})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	return c.t.post(ctx, chatRequest{
		Model:       params.Model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		N:           params.ChoiceCount,
	})
}
