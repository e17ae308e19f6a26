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
	"fmt"

	"github.com/crestdesk/crestdesk/core"
)

// CreateFromUpload stores an uploaded file as a new QUEUED source and
// enqueues its first indexing run. The tenant's source limit is checked
// before anything is written.
func (s *Service) CreateFromUpload(ctx context.Context, tenantID, userID, filename, mimeType string, data []byte) (*core.Source, *core.Job, error) {
	if s.gate != nil {
		if err := s.gate.AssertCanAddSource(ctx, tenantID); err != nil {
			return nil, nil, err
		}
	}

	source := &core.Source{
		TenantID:  tenantID,
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Status:    core.SourceQueued,
	}
	source, err := s.sources.CreateSource(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	path, err := s.files.Save(tenantID, source.ID, filename, data)
	if err != nil {
		return nil, nil, err
	}
	source.StoragePath = path
	if source, err = s.sources.UpdateSource(ctx, source); err != nil {
		return nil, nil, err
	}

	job, err := s.EnqueueIndex(ctx, tenantID, source.ID, userID, core.IndexModeFull)
	if err != nil {
		return source, nil, err
	}
	s.logger.Info("source uploaded", "tenant", tenantID, "source", source.ID,
		"filename", filename, "size", len(data))
	return source, job, nil
}

// CreateFromText stores raw text as a plain-text source.
func (s *Service) CreateFromText(ctx context.Context, tenantID, userID, filename, text string) (*core.Source, *core.Job, error) {
	if filename == "" {
		filename = "note.txt"
	}
	return s.CreateFromUpload(ctx, tenantID, userID, filename, "text/plain", []byte(text))
}

// Retry enqueues a fresh indexing run for an existing source.
func (s *Service) Retry(ctx context.Context, tenantID, sourceID, userID string) (*core.Job, error) {
	return s.EnqueueIndex(ctx, tenantID, sourceID, userID, core.IndexModeFull)
}

// Repair replaces the source's storage file with a new upload and
// enqueues a repair indexing run. This is the way out for sources whose
// file went missing from disk.
func (s *Service) Repair(ctx context.Context, tenantID, sourceID, userID, filename, mimeType string, data []byte) (*core.Job, error) {
	source, err := s.sources.GetSource(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Save(tenantID, sourceID, filename, data)
	if err != nil {
		return nil, err
	}
	source.StoragePath = path
	source.Filename = filename
	source.MimeType = mimeType
	source.SizeBytes = int64(len(data))
	if _, err := s.sources.UpdateSource(ctx, source); err != nil {
		return nil, err
	}

	return s.EnqueueIndex(ctx, tenantID, sourceID, userID, core.IndexModeRepair)
}

// EnqueueIndex persists a new indexing job for the source and submits it
// to the queue. The job row and the source reset commit atomically; if
// the queue rejects the submission afterwards, a compensating write
// marks both the job and the source FAILED.
func (s *Service) EnqueueIndex(ctx context.Context, tenantID, sourceID, userID string, mode core.IndexMode) (*core.Job, error) {
	source, err := s.sources.GetSource(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	if source.StoragePath == "" {
		return nil, core.NewFault(core.FaultInput,
			"knowledge source missing storage file (repair required)")
	}

	job := &core.Job{
		TenantID:    tenantID,
		Type:        core.JobTypeIndexSource,
		Status:      core.JobQueued,
		SourceID:    sourceID,
		RequestedBy: userID,
		Mode:        mode,
	}
	job, err = s.jobs.CreateJobResetSource(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Submit(ctx, job.ID); err != nil {
		msg := fmt.Sprintf("queue submit failed: %v", err)
		if failErr := s.jobs.FailJob(ctx, job.ID, tenantID, sourceID, msg); failErr != nil {
			s.logger.Error("compensating job failure write failed",
				"job", job.ID, "err", failErr)
		}
		return nil, fmt.Errorf("enqueue indexing for source %s: %w", sourceID, err)
	}

	s.logger.Info("indexing enqueued", "tenant", tenantID, "source", sourceID,
		"job", job.ID, "mode", string(mode))
	return job, nil
}
