package mock

import "github.com/crestdesk/crestdesk/ai"

// MockProvider is a test double for ai.Provider bundling the mock
// embedder and chat model.
type MockProvider struct {
	MockEmbedder *MockEmbedder
	MockChat     *MockChat
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder: NewMockEmbedder(),
		MockChat:     NewMockChat(""),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Chat returns the mock completion service.
func (p *MockProvider) Chat() ai.ChatModel {
	return p.MockChat
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
