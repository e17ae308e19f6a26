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


// Package config loads service configuration from a YAML file with
// environment variable overrides. A .env file in the working directory
// is folded into the environment first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	// DataDir holds the BadgerDB database.
	DataDir string `yaml:"data_dir"`
	// FilesDir holds uploaded source files.
	FilesDir string `yaml:"files_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	AI     AIConfig     `yaml:"ai"`
	Worker WorkerConfig `yaml:"worker"`
	Limits LimitsConfig `yaml:"limits"`
}

// AIConfig configures the model backend.
type AIConfig struct {
	Host       string        `yaml:"host"`
	EmbedModel string        `yaml:"embed_model"`
	ChatModel  string        `yaml:"chat_model"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
}

// WorkerConfig configures the indexing worker pool.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LimitsConfig holds the default tenant plan limits.
type LimitsConfig struct {
	MaxKbSources      int   `yaml:"max_kb_sources"`
	MaxAiMsgsPerMonth int64 `yaml:"max_ai_msgs_per_month"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:  "./data/db",
		FilesDir: "./data/files",
		LogLevel: "info",
		AI: AIConfig{
			Host:       "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3.1",
			Timeout:    60 * time.Second,
			Retries:    3,
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
		Limits: LimitsConfig{
			MaxKbSources:      50,
			MaxAiMsgsPerMonth: 500,
		},
	}
}

// Load reads configuration from the optional YAML file at path, then
// applies environment overrides. A missing file is an error only when a
// path was given explicitly.
func Load(path string) (*Config, error) {
	// Best-effort: a missing .env file is fine.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv folds environment variables over the loaded values.
func applyEnv(cfg *Config) {
	setString(&cfg.DataDir, "CRESTDESK_DATA_DIR")
	setString(&cfg.FilesDir, "CRESTDESK_FILES_DIR")
	setString(&cfg.LogLevel, "CRESTDESK_LOG_LEVEL")
	setString(&cfg.AI.Host, "OLLAMA_HOST")
	setString(&cfg.AI.EmbedModel, "OLLAMA_EMBED_MODEL")
	setString(&cfg.AI.ChatModel, "OLLAMA_CHAT_MODEL")
	setInt(&cfg.Worker.Concurrency, "CRESTDESK_WORKER_CONCURRENCY")
	setInt(&cfg.AI.Retries, "CRESTDESK_AI_RETRIES")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
