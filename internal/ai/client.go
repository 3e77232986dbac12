// Package ai wraps the chat-completion API used to translate user text
// into commands. It exposes token usage for cost accounting and
// classifies failures into the categories the gateway's retry logic
// needs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sashabaranov/go-openai"
)

// Failure classes. ErrRateLimited is a quota/rate rejection and must not
// be retried; ErrTransient covers connectivity and timeout failures that
// are worth one retry.
var (
	ErrRateLimited = errors.New("model rate limit or quota exceeded")
	ErrTransient   = errors.New("transient model call failure")
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Result is one model response with its token accounting.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Complete issues one chat completion with an instruction text and a
// user turn. Failures come back classified via errors.Is against
// ErrRateLimited and ErrTransient.
func (c *Client) Complete(ctx context.Context, instructions, userText string) (*Result, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	return &Result{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
