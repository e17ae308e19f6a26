package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434", cfg.Host)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedModel)
	assert.Equal(t, "llama3.1", cfg.ChatModel)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retries)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, 3, cfg.Retries)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://ollama.internal:11434"))

		assert.Equal(t, "http://ollama.internal:11434", cfg.Host)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbedModel("mxbai-embed-large"),
			WithChatModel("qwen2.5:7b"),
		)

		assert.Equal(t, "mxbai-embed-large", cfg.EmbedModel)
		assert.Equal(t, "qwen2.5:7b", cfg.ChatModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080"),
			WithTimeout(10*time.Second),
			WithRetries(5),
		)

		assert.Equal(t, "http://custom:8080", cfg.Host)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 5, cfg.Retries)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already canonical", "http://localhost:11434", "http://localhost:11434"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434"},
		{"surrounding whitespace", "  http://custom:8080  ", "http://custom:8080"},
		{"empty falls back to default", "", "http://localhost:11434"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.Host)
		})
	}

	t.Run("zero timeout and retries fall back", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()

		assert.Equal(t, 60*time.Second, cfg.Timeout)
		assert.Equal(t, 3, cfg.Retries)
	})
}

func TestConfigHosts(t *testing.T) {
	t.Run("custom primary first, then defaults", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://ollama.internal:11434"))

		assert.Equal(t, []string{
			"http://ollama.internal:11434",
			"http://localhost:11434",
			"http://127.0.0.1:11434",
		}, cfg.Hosts())
	})

	t.Run("primary matching a default is deduplicated", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))

		assert.Equal(t, []string{
			"http://localhost:11434",
			"http://127.0.0.1:11434",
		}, cfg.Hosts())
	})

	t.Run("trailing slash deduplicates too", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://127.0.0.1:11434/"))

		assert.Equal(t, []string{
			"http://127.0.0.1:11434",
			"http://localhost:11434",
		}, cfg.Hosts())
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			Host:       "http://localhost:11434/",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3.1",
		}

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, 3, cfg.Retries)
	})

	t.Run("missing embed model", func(t *testing.T) {
		cfg := &Config{ChatModel: "llama3.1"}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbedModel")
	})

	t.Run("missing chat model", func(t *testing.T) {
		cfg := &Config{EmbedModel: "nomic-embed-text"}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ChatModel")
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())
}
