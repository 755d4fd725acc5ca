// Package openai adapts the official OpenAI Go SDK to the model.ChatModel interface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/prizmhq/contractor-flow/graph/model"
)

// completionService is the slice of the SDK surface ChatModel depends on.
// Satisfied by openai.ChatCompletionService; tests substitute a fake.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatModel implements model.ChatModel using OpenAI's chat completions API.
//
// The underlying SDK client is safe for concurrent use.
type ChatModel struct {
	completions completionService
	model       string
}

// NewChatModel creates an OpenAI-backed chat model.
//
// Parameters:
//   - apiKey: OpenAI API key
//   - modelID: model to use (e.g. "gpt-4o", "gpt-4o-mini")
func NewChatModel(apiKey, modelID string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if modelID == "" {
		return nil, errors.New("model cannot be empty")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		completions: &client.Chat.Completions,
		model:       modelID,
	}, nil
}

// Name implements model.ChatModel.
func (m *ChatModel) Name() string { return "openai" }

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.model),
		Messages: convertMessages(messages),
	}

	completion, err := m.completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	if len(completion.Choices) == 0 {
		return model.ChatOut{}, errors.New("no response from OpenAI API")
	}

	return model.ChatOut{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
		Usage: model.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
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
			Provider:  "openai",
			Code:      "timeout",
			Message:   "OpenAI API request timed out",
			Transient: true,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	if strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "too many requests") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      "rate_limited",
			Message:   "OpenAI API rate limit exceeded",
			Transient: true,
		}
	}

	if strings.Contains(lowerErr, "invalid api key") ||
		strings.Contains(lowerErr, "incorrect api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "unauthorized") ||
		strings.Contains(lowerErr, "authentication") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      "invalid_api_key",
			Message:   "OpenAI API key is invalid or expired",
			Transient: false,
		}
	}

	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "billing") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      "quota_exceeded",
			Message:   "OpenAI API quota exceeded",
			Transient: false,
		}
	}

	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "504") ||
		strings.Contains(lowerErr, "internal server error") ||
		strings.Contains(lowerErr, "bad gateway") ||
		strings.Contains(lowerErr, "service unavailable") ||
		strings.Contains(lowerErr, "gateway timeout") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      "server_error",
			Message:   fmt.Sprintf("OpenAI API server error: %v", err),
			Transient: true,
		}
	}

	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      "network_error",
			Message:   fmt.Sprintf("network error calling OpenAI API: %v", err),
			Transient: true,
		}
	}

	return &model.ProviderError{
		Provider:  "openai",
		Code:      "api_error",
		Message:   fmt.Sprintf("OpenAI API error: %v", err),
		Transient: false,
	}
}
