package storage

import (
	"context"
	"time"

	"github.com/crestdesk/crestdesk/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// SourceFilter narrows a source listing.
type SourceFilter struct {
	// Status restricts results to one lifecycle state when non-empty.
	Status core.SourceStatus
	// Query matches case-insensitively against the filename when non-empty.
	Query string
	// Limit caps the number of returned sources; 0 means no cap.
	Limit int
}

// SourceRepository provides operations for managing knowledge sources.
type SourceRepository interface {
	Repository

	// CreateSource persists a new source. Sets CreatedAt/UpdatedAt if unset.
	// Returns the source with timestamps populated.
	CreateSource(ctx context.Context, source *core.Source) (*core.Source, error)

	// UpdateSource overwrites an existing source and bumps UpdatedAt.
	// Returns ErrNotFound if the source doesn't exist for the tenant.
	UpdateSource(ctx context.Context, source *core.Source) (*core.Source, error)

	// GetSource retrieves a source by ID, scoped to the tenant.
	// Returns ErrNotFound if the source doesn't exist or belongs elsewhere.
	GetSource(ctx context.Context, tenantID, id string) (*core.Source, error)

	// ListSources returns the tenant's sources, newest first.
	ListSources(ctx context.Context, tenantID string, filter SourceFilter) ([]*core.Source, error)

	// CountSources returns the number of sources the tenant has, in any state.
	CountSources(ctx context.Context, tenantID string) (int, error)

	// StatusCounts returns the number of sources per lifecycle state.
	// Every state appears in the result, zero-valued when absent.
	StatusCounts(ctx context.Context, tenantID string) (map[core.SourceStatus]int, error)

	// DeleteSourceCascade removes the source together with its chunks and
	// jobs in a single transaction. Returns ErrNotFound if absent.
	DeleteSourceCascade(ctx context.Context, tenantID, id string) error
}

// ChunkMatch is a chunk paired with its similarity to a query vector.
type ChunkMatch struct {
	Chunk      *core.Chunk
	Similarity float32
}

// ChunkRepository provides operations for managing knowledge chunks.
// Chunks are written exclusively by the indexing worker and are read-only
// to retrieval.
type ChunkRepository interface {
	Repository

	// AddChunk persists a chunk, generating its ID from a sequence.
	// Returns the chunk with ID and CreatedAt populated.
	AddChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error)

	// AttachVector stores the embedding for an existing chunk.
	// Returns ErrNotFound if the chunk doesn't exist for the tenant.
	AttachVector(ctx context.Context, tenantID string, id core.ChunkID, vector []float32) error

	// DeleteChunks removes every chunk of the given source.
	DeleteChunks(ctx context.Context, tenantID, sourceID string) error

	// CountChunks returns the number of chunks stored for the source.
	CountChunks(ctx context.Context, tenantID, sourceID string) (int, error)

	// SearchChunks finds the tenant's chunks nearest to the query vector by
	// cosine distance. Chunks without an embedding are skipped. Results are
	// ordered by similarity, highest first, up to topK entries.
	SearchChunks(ctx context.Context, tenantID string, vector []float32, topK int) ([]*ChunkMatch, error)
}

// JobRepository provides operations for indexing jobs. The combined
// job/source writes exist because the two rows must commit together: a job's
// terminal state forces the source's state.
type JobRepository interface {
	Repository

	// CreateJobResetSource atomically resets the job's source to QUEUED
	// (clearing error and indexed timestamp) and persists the new job.
	CreateJobResetSource(ctx context.Context, job *core.Job) (*core.Job, error)

	// MarkJobRunning transitions the job to RUNNING and clears its error.
	MarkJobRunning(ctx context.Context, id string) (*core.Job, error)

	// UpdateJobProgress records the job's progress percentage.
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	// CompleteJob atomically marks the job SUCCEEDED and its source READY
	// with a fresh indexed timestamp.
	CompleteJob(ctx context.Context, jobID, tenantID, sourceID string) error

	// FailJob atomically marks the job FAILED with the message and its
	// source FAILED with the same message.
	FailJob(ctx context.Context, jobID, tenantID, sourceID, message string) error

	// GetJob retrieves a job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id string) (*core.Job, error)

	// LatestJobForSource returns the most recently created job for a source.
	// Returns ErrNotFound when the source never had a job.
	LatestJobForSource(ctx context.Context, tenantID, sourceID string) (*core.Job, error)

	// ListJobsByStatus returns jobs currently in the given state, oldest
	// first. Used by the explicit requeue sweep.
	ListJobsByStatus(ctx context.Context, status core.JobStatus) ([]*core.Job, error)
}

// TicketRepository provides the ticket operations the assist pipeline
// consumes. Ticket CRUD beyond this belongs to the surrounding application.
type TicketRepository interface {
	Repository

	// CreateTicket persists a new ticket.
	CreateTicket(ctx context.Context, ticket *core.Ticket) (*core.Ticket, error)

	// GetTicket retrieves a ticket scoped to the tenant.
	// Returns ErrNotFound if the ticket doesn't exist or belongs elsewhere.
	GetTicket(ctx context.Context, tenantID, id string) (*core.Ticket, error)

	// AddComment appends a comment to a ticket.
	// Returns ErrNotFound if the ticket doesn't exist for the tenant.
	AddComment(ctx context.Context, comment *core.Comment) (*core.Comment, error)

	// ListComments returns a ticket's comments ordered by creation time,
	// oldest first.
	ListComments(ctx context.Context, tenantID, ticketID string) ([]*core.Comment, error)
}

// UsageRepository records and aggregates metering events.
type UsageRepository interface {
	Repository

	// AddEvent persists a usage event, generating its ID from a sequence.
	AddEvent(ctx context.Context, event *core.UsageEvent) (*core.UsageEvent, error)

	// SumAmount totals event amounts of one type for the tenant within
	// [start, end).
	SumAmount(ctx context.Context, tenantID, eventType string, start, end time.Time) (int64, error)
}
