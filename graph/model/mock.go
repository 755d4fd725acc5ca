package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// Use it in tests to verify workflow behavior without making API calls.
// It provides configurable responses, call history tracking, error
// injection, and thread-safe operation.
//
// Example usage:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{
//	        {Text: "POSITIVE"},
//	        {Text: "NEGATIVE"},
//	    },
//	}
//	out, err := mock.Chat(ctx, messages)
//	// Returns "POSITIVE", then "NEGATIVE" on subsequent calls.
type MockChatModel struct {
	// Responses is the sequence of responses to return.
	// Each call to Chat returns the next response in order.
	// When all responses are consumed, the last one repeats.
	Responses []ChatOut

	// Err, if set, is returned by Chat instead of a response.
	Err error

	// Calls records every Chat invocation.
	Calls [][]Message

	mu        sync.Mutex
	callIndex int
}

// Chat implements ChatModel. The call is recorded in Calls regardless
// of success or failure.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)

	if m.Err != nil {
		return ChatOut{}, m.Err
	}

	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	out := m.Responses[idx]
	if out.Model == "" {
		out.Model = "mock"
	}
	return out, nil
}

// Name implements ChatModel.
func (m *MockChatModel) Name() string { return "mock" }

// Reset clears the call history and resets the response index.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of times Chat has been called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
