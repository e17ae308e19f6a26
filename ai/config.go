// Copyright 2025 Crestdesk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Default fallback hosts tried after the configured primary.
const (
	defaultHost         = "http://localhost:11434"
	defaultLoopbackHost = "http://127.0.0.1:11434"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL of the primary Ollama-compatible server.
	// Example: "http://localhost:11434"
	Host string

	// EmbedModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text"
	EmbedModel string

	// ChatModel is the model identifier to use for completions.
	// Example: "llama3.1"
	ChatModel string

	// Timeout bounds each individual model call.
	// Default: 60s
	Timeout time.Duration

	// Retries is the number of attempts per host before failing over.
	// Default: 3
	Retries int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the primary server URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithEmbedModel sets the embedding model identifier.
func WithEmbedModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbedModel = model
	}
}

// WithChatModel sets the completion model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetries sets the number of attempts per host.
func WithRetries(retries int) ConfigOption {
	return func(c *Config) {
		c.Retries = retries
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// Ollama server.
func DefaultConfig() *Config {
	return &Config{
		Host:       defaultHost,
		EmbedModel: "nomic-embed-text",
		ChatModel:  "llama3.1",
		Timeout:    60 * time.Second,
		Retries:    3,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://ollama.internal:11434"),
//	    WithEmbedModel("mxbai-embed-large"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form:
// trailing slashes are stripped from the host and zero values fall back
// to defaults.
func (c *Config) Normalize() {
	c.Host = strings.TrimSuffix(strings.TrimSpace(c.Host), "/")
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
}

// Hosts returns the failover host list: the primary first, then the
// local defaults, with duplicates removed.
func (c *Config) Hosts() []string {
	candidates := []string{c.Host, defaultHost, defaultLoopbackHost}
	hosts := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, h := range candidates {
		h = strings.TrimSuffix(strings.TrimSpace(h), "/")
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	return hosts
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbedModel == "" {
		return errors.New("ai config: EmbedModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	return nil
}
