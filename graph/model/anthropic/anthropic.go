// Package anthropic adapts the official Anthropic Go SDK to the model.ChatModel interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/prizmhq/contractor-flow/graph/model"
)

// messageService is the slice of the SDK surface ChatModel depends on.
// Satisfied by anthropic.MessageService; tests substitute a fake.
type messageService interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

const defaultMaxTokens = 1024

// ChatModel implements model.ChatModel using Anthropic's messages API.
//
// The underlying SDK client is safe for concurrent use.
type ChatModel struct {
	messages messageService
	model    string
}

// NewChatModel creates an Anthropic-backed chat model.
//
// Parameters:
//   - apiKey: Anthropic API key
//   - modelID: model to use (e.g. "claude-sonnet-4-20250514", "claude-3-5-haiku-20241022")
func NewChatModel(apiKey, modelID string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if modelID == "" {
		return nil, errors.New("model cannot be empty")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		messages: &client.Messages,
		model:    modelID,
	}, nil
}

// Name implements model.ChatModel.
func (m *ChatModel) Name() string { return "anthropic" }

// Chat implements model.ChatModel.
//
// System messages are passed through the dedicated system parameter,
// which is how the Anthropic API expects them.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: defaultMaxTokens,
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	message, err := m.messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return model.ChatOut{
		Text:  text.String(),
		Model: string(message.Model),
		Usage: model.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

// mapError wraps API failures with retryability information so the
// engine can decide whether to retry a node.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "timeout",
			Message:   "Anthropic API request timed out",
			Transient: true,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	if strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "rate_limit") ||
		strings.Contains(lowerErr, "too many requests") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "rate_limited",
			Message:   "Anthropic API rate limit exceeded",
			Transient: true,
		}
	}

	if strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "403") ||
		strings.Contains(lowerErr, "authentication") ||
		strings.Contains(lowerErr, "api_key") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "invalid_api_key",
			Message:   "Anthropic API key is invalid or expired",
			Transient: false,
		}
	}

	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "billing") ||
		strings.Contains(lowerErr, "credit") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "quota_exceeded",
			Message:   "Anthropic API quota exceeded",
			Transient: false,
		}
	}

	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "529") ||
		strings.Contains(lowerErr, "overloaded") ||
		strings.Contains(lowerErr, "internal server error") ||
		strings.Contains(lowerErr, "service unavailable") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "server_error",
			Message:   fmt.Sprintf("Anthropic API server error: %v", err),
			Transient: true,
		}
	}

	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      "network_error",
			Message:   fmt.Sprintf("network error calling Anthropic API: %v", err),
			Transient: true,
		}
	}

	return &model.ProviderError{
		Provider:  "anthropic",
		Code:      "api_error",
		Message:   fmt.Sprintf("Anthropic API error: %v", err),
		Transient: false,
	}
}
