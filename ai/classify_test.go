package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o operation failed" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyModelError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassTerminal},
		{"context length phrase", errors.New("this model's maximum context length is 4096 tokens"), ClassContextLength},
		{"context window phrase", errors.New("request exceeds the context window"), ClassContextLength},
		{"prompt too long phrase", errors.New("the prompt is too long for this model"), ClassContextLength},
		{"uppercase phrase", errors.New("Input Length Exceeds the limit"), ClassContextLength},
		{"deadline exceeded", context.DeadlineExceeded, ClassTimeout},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), ClassTimeout},
		{"net timeout", timeoutNetError{}, ClassTimeout},
		{"timeout in message", errors.New("Client.Timeout exceeded while awaiting headers"), ClassTimeout},
		{"connection refused", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), ClassNetwork},
		{"dns failure", errors.New("lookup ollama.internal: no such host"), ClassNetwork},
		{"connection reset", errors.New("read tcp: connection reset by peer"), ClassNetwork},
		{"model missing", errors.New(`model "llama3.1" not found`), ClassTerminal},
		{"http 500", errors.New("unexpected status code 500"), ClassTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyModelError(tt.err))
		})
	}
}

func TestClassifyModelError_ContextLengthWins(t *testing.T) {
	// A context overflow mentioning a timeout is still an overflow: no
	// amount of retrying fixes the prompt.
	err := errors.New("timeout while processing: input length exceeds context window")
	assert.Equal(t, ClassContextLength, ClassifyModelError(err))
}

func TestErrorClassRetryable(t *testing.T) {
	assert.True(t, ClassNetwork.Retryable())
	assert.True(t, ClassTimeout.Retryable())
	assert.False(t, ClassContextLength.Retryable())
	assert.False(t, ClassTerminal.Retryable())
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "network", ClassNetwork.String())
	assert.Equal(t, "timeout", ClassTimeout.String())
	assert.Equal(t, "context-length", ClassContextLength.String())
	assert.Equal(t, "terminal", ClassTerminal.String())
	assert.Equal(t, "unknown", ErrorClass(0).String())
}
