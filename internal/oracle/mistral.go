package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMistralURL is the Mistral API base URL
const DefaultMistralURL = "https://api.mistral.ai/v1"

// DefaultMistralModel is used when no model is configured
const DefaultMistralModel = "mistral-small-latest"

// MistralClient calls the Mistral chat completions endpoint
type MistralClient struct {
	client *resty.Client
	model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewMistralClient creates a client. Empty model or baseURL use the defaults.
func NewMistralClient(apiKey, model, baseURL string, timeout time.Duration) *MistralClient {
	if model == "" {
		model = DefaultMistralModel
	}
	if baseURL == "" {
		baseURL = DefaultMistralURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetAuthToken(apiKey)
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &MistralClient{client: client, model: model}
}

// Complete implements Completer
func (c *MistralClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	var result chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("mistral request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("mistral API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}
