package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{backend: backend}
}

// Close implements storage.Repository. The backend owns the database handle.
func (r *JobRepository) Close() error {
	return nil
}

// CreateJobResetSource atomically resets the job's source to QUEUED and
// persists the new job. The source's error and indexed timestamp are
// cleared so a re-index starts from a clean slate.
func (r *JobRepository) CreateJobResetSource(ctx context.Context, job *core.Job) (*core.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Type == "" {
		job.Type = core.JobTypeIndexSource
	}
	if job.Status == "" {
		job.Status = core.JobQueued
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := core.ValidateJob(job); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		sourceKey := makeSourceKey(job.TenantID, job.SourceID)
		source, err := readSource(tx, sourceKey)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}

		source.Status = core.SourceQueued
		source.Error = ""
		source.IndexedAt = time.Time{}
		source.UpdatedAt = now
		if err := tx.Set(sourceKey, storage.MarshalSource(source)); err != nil {
			return err
		}

		if err := tx.Set(makeJobKey(job.ID), storage.MarshalJob(job)); err != nil {
			return err
		}
		indexKey := makeJobSourceKey(job.TenantID, job.SourceID, job.CreatedAt, job.ID)
		if err := tx.Set(indexKey, []byte(job.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkJobRunning transitions the job to RUNNING and clears its error.
func (r *JobRepository) MarkJobRunning(ctx context.Context, id string) (*core.Job, error) {
	var job *core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = readJob(tx, makeJobKey(id))
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		job.Status = core.JobRunning
		job.LastError = ""
		job.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeJobKey(id), storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateJobProgress records the job's progress percentage.
func (r *JobRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, makeJobKey(id))
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		job.Progress = progress
		job.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeJobKey(id), storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CompleteJob atomically marks the job SUCCEEDED and its source READY with
// a fresh indexed timestamp.
func (r *JobRepository) CompleteJob(ctx context.Context, jobID, tenantID, sourceID string) error {
	now := time.Now().UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, makeJobKey(jobID))
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		sourceKey := makeSourceKey(tenantID, sourceID)
		source, err := readSource(tx, sourceKey)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}

		job.Status = core.JobSucceeded
		job.LastError = ""
		job.Progress = 100
		job.UpdatedAt = now
		if err := tx.Set(makeJobKey(jobID), storage.MarshalJob(job)); err != nil {
			return err
		}

		source.Status = core.SourceReady
		source.Error = ""
		source.IndexedAt = now
		source.UpdatedAt = now
		if err := tx.Set(sourceKey, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FailJob atomically marks the job FAILED with the message and its source
// FAILED with the same message.
func (r *JobRepository) FailJob(ctx context.Context, jobID, tenantID, sourceID, message string) error {
	if message == "" {
		message = "indexing failed"
	}
	now := time.Now().UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, makeJobKey(jobID))
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}

		job.Status = core.JobFailed
		job.LastError = message
		job.UpdatedAt = now
		if err := tx.Set(makeJobKey(jobID), storage.MarshalJob(job)); err != nil {
			return err
		}

		// The source may already be gone when a delete raced the worker;
		// the job row still records the failure.
		sourceKey := makeSourceKey(tenantID, sourceID)
		source, err := readSource(tx, sourceKey)
		if err != nil {
			return err
		}
		if source != nil {
			source.Status = core.SourceFailed
			source.Error = message
			source.UpdatedAt = now
			if err := tx.Set(sourceKey, storage.MarshalSource(source)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*core.Job, error) {
	var job *core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = readJob(tx, makeJobKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, storage.ErrNotFound
	}
	return job, nil
}

// LatestJobForSource returns the most recently created job for a source.
func (r *JobRepository) LatestJobForSource(ctx context.Context, tenantID, sourceID string) (*core.Job, error) {
	var jobID string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// The index key embeds the creation timestamp in BigEndian, so the
		// last entry under the prefix is the newest job.
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobSourceScanKey(tenantID, sourceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			jobID = string(id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, storage.ErrNotFound
	}
	return r.GetJob(ctx, jobID)
}

// ListJobsByStatus returns jobs currently in the given state, oldest first.
func (r *JobRepository) ListJobsByStatus(ctx context.Context, status core.JobStatus) ([]*core.Job, error) {
	if err := core.ValidateJobStatus(status); err != nil {
		return nil, storage.ErrInvalidQuery
	}

	var jobs []*core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobScanKey()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			if job.Status == status {
				jobs = append(jobs, job)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(jobs, func(a, b *core.Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

// readJob reads and deserializes a job within a transaction.
// Returns nil without error when the key is absent.
func readJob(tx *badger.Txn, key []byte) (*core.Job, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var job *core.Job
	err = item.Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
