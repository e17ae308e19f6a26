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


// Package crestdesk wires the knowledge ingestion and ticket assist
// pipeline into a single embeddable system: BadgerDB storage, the
// Ollama model backend, the indexing worker pool, and the assist
// orchestrator.
package crestdesk

import (
	"context"
	"errors"
	"log/slog"

	aipkg "github.com/crestdesk/crestdesk/ai"
	"github.com/crestdesk/crestdesk/ai/ollama"
	"github.com/crestdesk/crestdesk/assist"
	"github.com/crestdesk/crestdesk/config"
	"github.com/crestdesk/crestdesk/entitlements"
	"github.com/crestdesk/crestdesk/kb"
	"github.com/crestdesk/crestdesk/queue"
	"github.com/crestdesk/crestdesk/storage/badger"
	"github.com/crestdesk/crestdesk/usage"
	"github.com/crestdesk/crestdesk/worker"
)

// System is the assembled pipeline. All components share one store and
// one AI provider.
type System struct {
	store    *badger.Store
	provider aipkg.Provider
	files    *kb.FileStore

	KB         *kb.Service
	Assist     *assist.Service
	Dispatcher *queue.Dispatcher
	Usage      *usage.Recorder
	Gate       *entitlements.Service

	logger *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	provider aipkg.Provider
}

// WithProvider substitutes the AI provider, e.g. a mock in tests.
func WithProvider(provider aipkg.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// NewSystem assembles the pipeline from configuration.
func NewSystem(cfg *config.Config, opts ...SystemOption) (*System, error) {
	options := &systemOptions{}
	for _, opt := range opts {
		opt(options)
	}

	store, err := badger.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	files, err := kb.NewFileStore(cfg.FilesDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = ollama.NewProvider(aipkg.NewConfig(
			aipkg.WithHost(cfg.AI.Host),
			aipkg.WithEmbedModel(cfg.AI.EmbedModel),
			aipkg.WithChatModel(cfg.AI.ChatModel),
			aipkg.WithTimeout(cfg.AI.Timeout),
			aipkg.WithRetries(cfg.AI.Retries),
		))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	recorder := usage.NewRecorder(store.Usage)
	gate := entitlements.NewService(&entitlements.Plans{
		Default: entitlements.Limits{
			MaxKbSources:      cfg.Limits.MaxKbSources,
			MaxAiMsgsPerMonth: cfg.Limits.MaxAiMsgsPerMonth,
		},
	}, store.Sources, recorder)

	// The KB service and the dispatcher reference each other: the service
	// submits jobs, the dispatcher's processor replaces chunks. Wire the
	// service first with a late-bound queue.
	lateQueue := &lateBoundQueue{}
	service := kb.NewService(store.Sources, store.Chunks, store.Jobs,
		provider.Embedder(), files, lateQueue, gate)

	indexer := worker.NewIndexer(store.Sources, store.Jobs, service, files, recorder)
	dispatcher, err := queue.NewDispatcher(store.Jobs, indexer,
		queue.WithConcurrency(cfg.Worker.Concurrency))
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}
	lateQueue.q = dispatcher

	assistSvc := assist.NewService(store.Tickets, service, provider.Chat(), gate, recorder)

	return &System{
		store:      store,
		provider:   provider,
		files:      files,
		KB:         service,
		Assist:     assistSvc,
		Dispatcher: dispatcher,
		Usage:      recorder,
		Gate:       gate,
		logger:     slog.Default(),
	}, nil
}

// Store exposes the underlying repositories.
func (s *System) Store() *badger.Store {
	return s.store
}

// Close shuts the pipeline down: worker pool first so no job writes
// race the closing database.
func (s *System) Close() error {
	s.Dispatcher.Release()
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	return s.store.Close()
}

// lateBoundQueue defers job submission to the dispatcher created after
// the KB service.
type lateBoundQueue struct {
	q kb.Queue
}

func (l *lateBoundQueue) Submit(ctx context.Context, jobID string) error {
	if l.q == nil {
		return errors.New("dispatcher not wired")
	}
	return l.q.Submit(ctx, jobID)
}
