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


// Package worker executes indexing jobs: it drives a source from QUEUED
// through INDEXING to READY or FAILED, extracting, chunking, and
// embedding its file along the way.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/kb"
	"github.com/crestdesk/crestdesk/queue"
	"github.com/crestdesk/crestdesk/storage"
	"github.com/crestdesk/crestdesk/usage"
)

// Progress checkpoints of an indexing run. Chunk replacement reports a
// fraction that is mapped onto the 25..95 band between the chunking and
// completion checkpoints.
const (
	progressExtracted = 10
	progressChunked   = 25
	progressEmbedBand = 70
)

// minTextLen is the threshold below which extracted text counts as empty.
const minTextLen = 5

// Indexer processes index_source jobs. It implements queue.Processor.
type Indexer struct {
	sources storage.SourceRepository
	jobs    storage.JobRepository
	service *kb.Service
	files   *kb.FileStore
	usage   *usage.Recorder
	logger  *slog.Logger
}

var _ queue.Processor = (*Indexer)(nil)

// NewIndexer creates an indexing job processor. The usage recorder may
// be nil when metering is not wired.
func NewIndexer(
	sources storage.SourceRepository,
	jobs storage.JobRepository,
	service *kb.Service,
	files *kb.FileStore,
	recorder *usage.Recorder,
) *Indexer {
	return &Indexer{
		sources: sources,
		jobs:    jobs,
		service: service,
		files:   files,
		usage:   recorder,
		logger:  slog.Default().With("component", "worker"),
	}
}

// Process runs one indexing job to a terminal state. Whatever happens,
// the job ends SUCCEEDED or FAILED and its source ends READY or FAILED;
// the two transitions commit atomically.
func (w *Indexer) Process(ctx context.Context, jobID string) error {
	job, err := w.jobs.MarkJobRunning(ctx, jobID)
	if err != nil {
		return fmt.Errorf("mark job %s running: %w", jobID, err)
	}

	if err := w.run(ctx, job); err != nil {
		if failErr := w.jobs.FailJob(ctx, job.ID, job.TenantID, job.SourceID, err.Error()); failErr != nil {
			w.logger.Error("failed to record job failure", "job", job.ID, "err", failErr)
		}
		w.logger.Warn("indexing failed", "job", job.ID, "source", job.SourceID, "err", err)
		return err
	}
	return nil
}

// run performs the actual indexing work and returns the failure that
// should be recorded on the job, if any.
func (w *Indexer) run(ctx context.Context, job *core.Job) error {
	source, err := w.sources.GetSource(ctx, job.TenantID, job.SourceID)
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("knowledge source not found (or tenant mismatch)")
		}
		return err
	}

	source.Status = core.SourceIndexing
	if source, err = w.sources.UpdateSource(ctx, source); err != nil {
		return err
	}

	if source.StoragePath == "" {
		return fmt.Errorf("knowledge source missing storage file (repair required)")
	}
	data, err := w.files.Read(source.StoragePath)
	if err != nil {
		return fmt.Errorf("cannot read source file: %w", err)
	}

	text, err := kb.ExtractText(source.StoragePath, source.Filename, source.MimeType, data)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(text)) < minTextLen {
		return fmt.Errorf("no text found in source file")
	}
	w.progress(ctx, job.ID, progressExtracted)

	pieces := kb.SplitParagraphs(text, kb.DefaultChunkSize, kb.DefaultParagraphOverlap)
	w.progress(ctx, job.ID, progressChunked)

	count, err := w.service.ReplaceChunks(ctx, job.TenantID, job.SourceID, pieces, func(fraction float64) {
		w.progress(ctx, job.ID, progressChunked+int(math.Floor(fraction*progressEmbedBand)))
	})
	if err != nil {
		return err
	}

	if err := w.jobs.CompleteJob(ctx, job.ID, job.TenantID, job.SourceID); err != nil {
		return err
	}

	w.usage.Log(ctx, &core.UsageEvent{
		TenantID: job.TenantID,
		UserID:   job.RequestedBy,
		Type:     core.UsageKbEmbedding,
		Amount:   int64(count),
		Meta: map[string]string{
			"sourceId": job.SourceID,
			"jobId":    job.ID,
			"chunks":   strconv.Itoa(count),
		},
	})

	w.logger.Info("source indexed", "job", job.ID, "tenant", job.TenantID,
		"source", job.SourceID, "chunks", count)
	return nil
}

// progress records a checkpoint, tolerating write failures: losing a
// progress tick must not fail the run.
func (w *Indexer) progress(ctx context.Context, jobID string, pct int) {
	if pct > 100 {
		pct = 100
	}
	if err := w.jobs.UpdateJobProgress(ctx, jobID, pct); err != nil {
		w.logger.Debug("progress update failed", "job", jobID, "pct", pct, "err", err)
	}
}
