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


package kb

import (
	"context"
	"log/slog"

	"github.com/crestdesk/crestdesk/ai"
	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// Retrieval limits.
const (
	DefaultTopK = 5
	MaxTopK     = 20
	snippetLen  = 240
)

// Queue submits a persisted job for asynchronous execution.
type Queue interface {
	Submit(ctx context.Context, jobID string) error
}

// SourceGate enforces the tenant's plan limit on knowledge sources.
type SourceGate interface {
	AssertCanAddSource(ctx context.Context, tenantID string) error
}

// Service implements the knowledge base operations: ingestion, chunk
// replacement during indexing, and vector retrieval.
type Service struct {
	sources  storage.SourceRepository
	chunks   storage.ChunkRepository
	jobs     storage.JobRepository
	embedder ai.Embedder
	files    *FileStore
	queue    Queue
	gate     SourceGate
	logger   *slog.Logger
}

// NewService creates a knowledge base service. The gate may be nil, in
// which case source limits are not enforced.
func NewService(
	sources storage.SourceRepository,
	chunks storage.ChunkRepository,
	jobs storage.JobRepository,
	embedder ai.Embedder,
	files *FileStore,
	queue Queue,
	gate SourceGate,
) *Service {
	return &Service{
		sources:  sources,
		chunks:   chunks,
		jobs:     jobs,
		embedder: embedder,
		files:    files,
		queue:    queue,
		gate:     gate,
		logger:   slog.Default().With("component", "kb"),
	}
}

// ReplaceChunks rebuilds the source's chunk set from the given pieces:
// existing chunks are dropped, each piece is stored and embedded in
// order. onProgress, when non-nil, receives the completed fraction in
// [0, 1] after every piece.
//
// An embedding failure aborts the run: the error propagates and the
// returned count covers the chunks stored before the failure.
func (s *Service) ReplaceChunks(ctx context.Context, tenantID, sourceID string, pieces []string, onProgress func(float64)) (int, error) {
	if err := s.chunks.DeleteChunks(ctx, tenantID, sourceID); err != nil {
		return 0, err
	}

	stored := 0
	for i, piece := range pieces {
		chunk := &core.Chunk{
			TenantID: tenantID,
			SourceID: sourceID,
			Ordinal:  i,
			Content:  piece,
		}
		chunk, err := s.chunks.AddChunk(ctx, chunk)
		if err != nil {
			return stored, err
		}
		stored++

		vector, err := s.embedder.EmbedText(ctx, piece)
		if err != nil {
			return stored, err
		}
		if len(vector) > 0 {
			if err := s.chunks.AttachVector(ctx, tenantID, chunk.ID, vector); err != nil {
				return stored, err
			}
		}

		if onProgress != nil {
			onProgress(float64(i+1) / float64(len(pieces)))
		}
	}

	s.logger.Debug("replaced chunks", "tenant", tenantID, "source", sourceID, "count", stored)
	return stored, nil
}

// Query embeds the query text and returns the tenant's nearest chunks,
// joined with their source metadata. topK is clamped to [1, 20]; zero
// selects the default of 5. A blank query returns no hits.
func (s *Service) Query(ctx context.Context, tenantID, query string, topK int) ([]*core.Hit, error) {
	if tenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	topK = ClampTopK(topK)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, nil
	}

	matches, err := s.chunks.SearchChunks(ctx, tenantID, vector, topK)
	if err != nil {
		return nil, err
	}

	// Sources repeat across matches; fetch each once.
	sourceCache := make(map[string]*core.Source)
	hits := make([]*core.Hit, 0, len(matches))
	for _, match := range matches {
		source, ok := sourceCache[match.Chunk.SourceID]
		if !ok {
			source, err = s.sources.GetSource(ctx, tenantID, match.Chunk.SourceID)
			if err != nil {
				if err == storage.ErrNotFound {
					continue
				}
				return nil, err
			}
			sourceCache[match.Chunk.SourceID] = source
		}
		hits = append(hits, &core.Hit{
			ChunkID:    match.Chunk.ID,
			SourceID:   match.Chunk.SourceID,
			Filename:   source.Filename,
			MimeType:   source.MimeType,
			Ordinal:    match.Chunk.Ordinal,
			Similarity: match.Similarity,
			Content:    match.Chunk.Content,
			Snippet:    snippet(match.Chunk.Content),
		})
	}
	return hits, nil
}

// ClampTopK normalizes a requested hit count: zero or negative selects
// the default, anything above the cap is cut to it.
func ClampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// List returns the tenant's sources, newest first.
func (s *Service) List(ctx context.Context, tenantID string, filter storage.SourceFilter) ([]*core.Source, error) {
	return s.sources.ListSources(ctx, tenantID, filter)
}

// StatusCounts returns how many sources sit in each lifecycle state.
func (s *Service) StatusCounts(ctx context.Context, tenantID string) (map[core.SourceStatus]int, error) {
	return s.sources.StatusCounts(ctx, tenantID)
}

// GetWithLatestJob returns the source together with its most recent
// indexing job, or a nil job when the source never had one.
func (s *Service) GetWithLatestJob(ctx context.Context, tenantID, sourceID string) (*core.Source, *core.Job, error) {
	source, err := s.sources.GetSource(ctx, tenantID, sourceID)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.jobs.LatestJobForSource(ctx, tenantID, sourceID)
	if err != nil {
		if err == storage.ErrNotFound {
			return source, nil, nil
		}
		return nil, nil, err
	}
	return source, job, nil
}

// Delete removes the source, its chunks, its jobs, and its stored files.
func (s *Service) Delete(ctx context.Context, tenantID, sourceID string) error {
	if err := s.sources.DeleteSourceCascade(ctx, tenantID, sourceID); err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.RemoveSourceDir(tenantID, sourceID); err != nil {
			// The database rows are gone; a stale file is an acceptable leak.
			s.logger.Warn("failed to remove source files",
				"tenant", tenantID, "source", sourceID, "err", err)
		}
	}
	return nil
}

// snippet returns the first 240 runes of content.
func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLen {
		return content
	}
	return string(runes[:snippetLen])
}
