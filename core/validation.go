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


package core

import "fmt"

// ValidateSource validates a Source according to domain rules.
//
// Validation rules:
//   - TenantID must not be empty
//   - Status must be one of the four lifecycle states
//   - READY requires IndexedAt set and Error empty
//   - FAILED requires Error set
//
// NOT validated (populated later in the lifecycle):
//   - StoragePath (empty until the file is persisted)
//   - IndexedAt for non-READY states
func ValidateSource(source *Source) error {
	if source == nil {
		return fmt.Errorf("%w: source is nil", ErrInvalidSource)
	}
	if source.TenantID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptyTenant)
	}
	if err := ValidateSourceStatus(source.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	switch source.Status {
	case SourceReady:
		if source.IndexedAt.IsZero() {
			return fmt.Errorf("%w: %w", ErrInvalidSource, ErrReadyWithoutTimestamp)
		}
		if source.Error != "" {
			return fmt.Errorf("%w: %w", ErrInvalidSource, ErrReadyWithError)
		}
	case SourceFailed:
		if source.Error == "" {
			return fmt.Errorf("%w: %w", ErrInvalidSource, ErrFailedWithoutError)
		}
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// NOT validated:
//   - Vector (nil until the embedding call succeeds)
//   - ID (0 is valid from database sequences)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.TenantID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyTenant)
	}
	if chunk.SourceID == "" {
		return fmt.Errorf("%w: source id cannot be empty", ErrInvalidChunk)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: ordinal %d is negative", ErrInvalidChunk, chunk.Ordinal)
	}
	return nil
}

// ValidateJob validates a Job according to domain rules.
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}
	if job.TenantID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyTenant)
	}
	if job.SourceID == "" {
		return fmt.Errorf("%w: source id cannot be empty", ErrInvalidJob)
	}
	if err := ValidateJobStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if job.Status == JobFailed && job.LastError == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrFailedWithoutError)
	}
	return nil
}

// ValidateSourceStatus validates that a SourceStatus has a valid value.
func ValidateSourceStatus(status SourceStatus) error {
	switch status {
	case SourceQueued, SourceIndexing, SourceReady, SourceFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ValidateJobStatus validates that a JobStatus has a valid value.
func ValidateJobStatus(status JobStatus) error {
	switch status {
	case JobQueued, JobRunning, JobSucceeded, JobFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}
