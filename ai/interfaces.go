package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an empty vector without calling the model when the text is
	// blank after whitespace normalization.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces completions from a message transcript.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Chat sends the transcript to the model and returns its reply text.
	// Errors carry a fault kind: payload-too-large when the prompt exceeds
	// the model's context window, timeout when every host timed out, and
	// unavailable when every host refused.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. Services returned by a provider share its host
// configuration and failover behavior.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Chat returns the completion service.
	Chat() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
