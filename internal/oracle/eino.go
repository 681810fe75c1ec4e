package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoCompleter adapts an eino chat model to Completer
type EinoCompleter struct {
	model model.BaseChatModel
}

// NewEinoCompleter wraps an existing chat model
func NewEinoCompleter(m model.BaseChatModel) *EinoCompleter {
	return &EinoCompleter{model: m}
}

// NewOpenAICompleter builds a completer for any OpenAI-compatible endpoint,
// such as DeepSeek at https://api.deepseek.com/v1
func NewOpenAICompleter(ctx context.Context, apiKey, modelName, baseURL string, timeout time.Duration) (*EinoCompleter, error) {
	maxTokens := 1024
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     modelName,
		MaxTokens: &maxTokens,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewEinoCompleter(chatModel), nil
}

// Complete implements Completer
func (c *EinoCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", err
	}
	if msg == nil || msg.Content == "" {
		return "", ErrEmptyResponse
	}
	return msg.Content, nil
}
