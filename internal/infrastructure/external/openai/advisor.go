package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// ChatClient implements port.ChatCompleter. It prepends the tax advisor system prompt.
type ChatClient struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewChatClient creates the advisor chat adapter
func NewChatClient(client *openai.Client, model string, prompts *PromptConfig, logger *zap.Logger) *ChatClient {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{client: client, model: model, prompts: prompts, logger: logger}
}

// Complete sends the conversation and returns the first choice.
// An empty choice yields "" and no error.
func (c *ChatClient) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.prompts.Advisor.Temperature,
		MaxTokens:   c.prompts.Advisor.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)+1),
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.prompts.Advisor.System,
	})
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("OpenAI chat completion failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	content, err := firstContent(resp)
	if errors.Is(err, ErrEmptyReply) {
		return "", nil
	}
	return content, err
}

var _ port.ChatCompleter = (*ChatClient)(nil)
