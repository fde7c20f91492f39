package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Base URLs of OpenAI-compatible endpoints selectable by name.
var Presets = map[string]string{
	"openai": "https://api.openai.com/v1",
	"groq":   "https://api.groq.com/openai/v1",
	"gemini": "https://generativelanguage.googleapis.com/v1beta/openai",
}

// ResolveBaseURL maps a preset name to its URL and returns anything else
// unchanged.
func ResolveBaseURL(s string) string {
	if u, ok := Presets[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u
	}
	return s
}

// Client talks to any OpenAI-compatible chat completion endpoint.
type Client struct {
	client      *openai.Client
	model       string
	proModel    string
	temperature float32
}

var _ Generator = (*Client)(nil)

// New returns a client. An empty apiKey yields a client whose Generate
// always returns ErrUnavailable.
func New(apiKey, baseURL, model, proModel string) *Client {
	c := &Client{model: model, proModel: proModel, temperature: 0.6}
	if strings.TrimSpace(apiKey) == "" {
		return c
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = ResolveBaseURL(baseURL)
	}
	c.client = openai.NewClientWithConfig(config)
	return c
}

// Available reports whether a credential was configured.
func (c *Client) Available() bool {
	return c != nil && c.client != nil
}

func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	model := c.model
	if req.Pro && c.proModel != "" {
		model = c.proModel
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
