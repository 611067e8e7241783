package openai

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/inference"
)

const defaultMaxTokens = 4096

// Client implements inference.Invoker using OpenAI-compatible chat
// completions, including multimodal requests with inline images.
type Client struct {
	*openai.Client
	Model     string
	MaxTokens int
}

// NewClient constructs a client for the given model. baseURL may point at any
// OpenAI-compatible endpoint; empty means the public API.
func NewClient(apiKey, baseURL, model string, maxTokens int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, MaxTokens: maxTokens}
}

// Invoke performs one chat completion. When image is non-nil the user turn is
// sent as multimodal content with the image attached as a data URI.
func (c *Client) Invoke(ctx context.Context, systemPrompt, userPrompt string, image *inference.Image) (string, error) {
	userMessage := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if image != nil {
		userMessage.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    image.DataURI,
					Detail: openai.ImageURLDetailAuto,
				},
			},
			{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
		}
	} else {
		userMessage.Content = userPrompt
	}

	req := openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			userMessage,
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", inference.WrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", inference.WrapError(errEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ inference.Invoker = (*Client)(nil)
