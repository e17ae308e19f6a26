package mock

import (
	"context"
	"sync"

	"github.com/crestdesk/crestdesk/ai"
)

// MockChat is a test double for ai.ChatModel.
// It allows custom behavior injection via a function field.
type MockChat struct {
	// ChatFunc is called by Chat if set.
	// If nil, Reply is returned.
	ChatFunc func(ctx context.Context, messages []ai.Message) (string, error)

	// Reply is the canned response when ChatFunc is nil.
	Reply string

	mu        sync.Mutex
	callCount int
	lastMsgs  []ai.Message
}

// NewMockChat creates a mock chat model returning the given canned reply.
// Note: Returns concrete type to allow test assertions.
func NewMockChat(reply string) *MockChat {
	return &MockChat{Reply: reply}
}

// Chat records the transcript and returns the injected or canned reply.
func (m *MockChat) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastMsgs = messages
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return m.Reply, nil
}

// CallCount returns the number of Chat calls made.
func (m *MockChat) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns the transcript of the most recent call.
func (m *MockChat) LastMessages() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMsgs
}
