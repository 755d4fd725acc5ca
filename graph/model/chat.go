// Package model provides LLM chat adapters.
package model

import "context"

// ChatModel is the interface workflow nodes use to talk to an LLM.
//
// It abstracts the differences between providers (OpenAI, Anthropic)
// behind a single chat call. Implementations should:
//   - Handle provider-specific authentication
//   - Convert Message values to the provider's wire format
//   - Parse provider responses back into ChatOut
//   - Respect context cancellation and timeouts
//
// Example usage:
//
//	m, err := openai.NewChatModel(apiKey, "gpt-4o-mini")
//	if err != nil {
//	    return err
//	}
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "I'll do it tomorrow"},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	// Chat sends the conversation to the LLM and returns its reply.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)

	// Name identifies the provider ("openai", "anthropic", "mock").
	Name() string
}

// Message is a single message in an LLM conversation.
//
// Typical structure: an optional system message first, then alternating
// user and assistant messages.
type Message struct {
	// Role identifies the sender. Use the Role* constants.
	Role string

	// Content is the message text.
	Content string
}

// Standard role constants, aligned with the conventions used by the
// major LLM providers.
const (
	// RoleSystem sets context or behavior. Appears first when present.
	RoleSystem = "system"

	// RoleUser carries human input.
	RoleUser = "user"

	// RoleAssistant carries LLM responses.
	RoleAssistant = "assistant"
)

// ChatOut is the result of a chat completion.
type ChatOut struct {
	// Text is the LLM's generated reply.
	Text string

	// Model is the concrete model that produced the reply, as reported
	// by the provider. Used for per-model cost accounting.
	Model string

	// Usage reports token consumption for this call.
	Usage Usage
}

// Usage reports token consumption for a single chat call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
