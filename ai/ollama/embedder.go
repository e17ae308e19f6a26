package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/crestdesk/crestdesk/ai"
	"github.com/crestdesk/crestdesk/core"
)

// Embedder implements ai.Embedder against Ollama servers with host
// failover. Each configured host gets a fixed number of attempts before
// the next one is tried.
type Embedder struct {
	config  *ai.Config
	clients []*hostClient
	logger  *slog.Logger
}

// hostClient pairs an Ollama client with the host it talks to, for
// error reporting.
type hostClient struct {
	host string
	llm  *ollama.LLM
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clients, err := buildClients(config, config.EmbedModel)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		config:  config,
		clients: clients,
		logger:  slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// buildClients creates one Ollama client per failover host.
func buildClients(config *ai.Config, model string) ([]*hostClient, error) {
	hosts := config.Hosts()
	clients := make([]*hostClient, 0, len(hosts))
	for _, host := range hosts {
		llm, err := ollama.New(
			ollama.WithServerURL(host),
			ollama.WithModel(model),
			ollama.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("ollama client for %s: %w", host, err)
		}
		clients = append(clients, &hostClient{host: host, llm: llm})
	}
	return clients, nil
}

// EmbedText generates a vector embedding for a single text string.
// Blank text yields an empty vector without a model call.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	cleaned := cleanText(text)
	if cleaned == "" {
		return []float32{}, nil
	}

	vectors, err := e.embedBatch(ctx, []string{cleaned})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a
// batch. Blank entries come back as empty vectors; the rest keep their
// input positions.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		c := cleanText(text)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, c)
		positions = append(positions, i)
	}

	result := make([][]float32, len(texts))
	for i := range result {
		result[i] = []float32{}
	}
	if len(cleaned) == 0 {
		return result, nil
	}

	vectors, err := e.embedBatch(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	for i, vec := range vectors {
		if i < len(positions) {
			result[positions[i]] = vec
		}
	}
	return result, nil
}

// embedBatch walks the host list, giving each host the configured number
// of attempts before moving on.
func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for _, client := range e.clients {
		for attempt := 1; attempt <= e.config.Retries; attempt++ {
			callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
			vectors, err := client.llm.CreateEmbedding(callCtx, texts)
			cancel()
			if err == nil {
				return vectors, nil
			}
			lastErr = err
			e.logger.Debug("embedding attempt failed",
				"host", client.host, "attempt", attempt, "err", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	hosts := e.config.Hosts()
	return nil, core.WrapFault(core.FaultUnavailable,
		fmt.Sprintf("embedding failed on all hosts %v with model %s",
			hosts, e.config.EmbedModel), lastErr)
}
