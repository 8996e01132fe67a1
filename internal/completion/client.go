// Package completion wraps the chat completion API used to summarize reviews.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

const systemPrompt = "You summarize course reviews for other learners. " +
	"Reply with two sentences at most, neutral tone, no markdown."

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Client struct {
	api   *openai.Client
	model string
}

// New returns nil when no API key is configured.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Client{api: openai.NewClientWithConfig(oc), model: model}
}

func (c *Client) Summarize(ctx context.Context, title, body string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Title: " + title + "\n\n" + body},
		},
		MaxTokens:   160,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// Ping lists models; any successful response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	return err
}
