package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/crestdesk/crestdesk/ai"
	"github.com/crestdesk/crestdesk/core"
)

// Chat implements ai.ChatModel against Ollama servers with host failover.
//
// Error handling mirrors the embedder's host loop with one difference:
// context-window overflows and definitive host answers end the loop
// immediately, since no other host would behave differently.
type Chat struct {
	config  *ai.Config
	clients []*hostClient
	logger  *slog.Logger
}

// newChat is an internal constructor that returns the concrete type.
func newChat(config *ai.Config) (*Chat, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clients, err := buildClients(config, config.ChatModel)
	if err != nil {
		return nil, err
	}

	return &Chat{
		config:  config,
		clients: clients,
		logger:  slog.Default().With("component", "ollama-chat"),
	}, nil
}

// NewChat creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChat(config *ai.Config) (ai.ChatModel, error) {
	return newChat(config)
}

// Chat sends the transcript to the model and returns its reply text.
func (c *Chat) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	content := toContent(messages)

	var lastErr error
	var lastClass ai.ErrorClass
	for _, client := range c.clients {
		for attempt := 1; attempt <= c.config.Retries; attempt++ {
			callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			resp, err := client.llm.GenerateContent(callCtx, content)
			cancel()
			if err == nil {
				return firstChoice(resp), nil
			}

			class := ai.ClassifyModelError(err)
			lastErr = err
			lastClass = class
			c.logger.Debug("chat attempt failed",
				"host", client.host, "attempt", attempt,
				"class", class.String(), "err", err)

			switch class {
			case ai.ClassContextLength:
				return "", core.WrapFault(core.FaultPayloadTooLarge,
					fmt.Sprintf("prompt exceeds context window of model %s",
						c.config.ChatModel), err)
			case ai.ClassTerminal:
				return "", core.WrapFault(core.FaultUnavailable,
					fmt.Sprintf("chat failed on host %s with model %s",
						client.host, c.config.ChatModel), err)
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}

	hosts := c.config.Hosts()
	kind := core.FaultUnavailable
	if lastClass == ai.ClassTimeout {
		kind = core.FaultTimeout
	}
	return "", core.WrapFault(kind,
		fmt.Sprintf("chat failed on all hosts %v with model %s",
			hosts, c.config.ChatModel), lastErr)
}

// toContent converts transcript messages to the langchaingo message shape.
func toContent(messages []ai.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, m.Content))
	}
	return content
}

// firstChoice extracts the reply text from a model response.
func firstChoice(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Content)
}
