package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ChunkID is a unique identifier for knowledge chunks.
// It is generated from a database sequence.
type ChunkID uint64

// KeyFromContent generates a deterministic 64-bit key from text using BLAKE2b
// hashing. Identical content always produces the identical key; the assist
// preview cache relies on this.
func KeyFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// SourceStatus is the lifecycle state of a KnowledgeSource.
type SourceStatus string

const (
	// SourceQueued means the source is waiting for an indexing run.
	SourceQueued SourceStatus = "QUEUED"
	// SourceIndexing means a worker is currently processing the source.
	SourceIndexing SourceStatus = "INDEXING"
	// SourceReady means the source has been chunked and embedded.
	SourceReady SourceStatus = "READY"
	// SourceFailed means the last indexing run ended in an error.
	SourceFailed SourceStatus = "FAILED"
)

// SourceStatuses lists every valid source status, in lifecycle order.
var SourceStatuses = []SourceStatus{SourceQueued, SourceIndexing, SourceReady, SourceFailed}

// Source represents one ingested knowledge document.
//
// Invariants:
//   - Status == SourceReady implies IndexedAt is set and Error is empty.
//   - Status == SourceFailed implies Error is set.
//
// Status transitions are owned by the indexing worker and the enqueue path;
// read paths never mutate a source.
type Source struct {
	ID          string
	TenantID    string
	Filename    string
	MimeType    string
	SizeBytes   int64
	Status      SourceStatus
	StoragePath string // empty until the file is persisted
	Error       string
	IndexedAt   time.Time // zero until the source reaches READY
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is one bounded text segment of a source. Chunks for a source are
// fully replaced on every indexing run; the Vector stays nil until the
// embedding call for this chunk succeeds.
type Chunk struct {
	ID        ChunkID
	TenantID  string
	SourceID  string
	Ordinal   int // unique within a source, insertion order
	Content   string
	Vector    []float32
	Meta      map[string]string
	CreatedAt time.Time
}

// JobStatus is the lifecycle state of an indexing job.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobSucceeded JobStatus = "SUCCEEDED"
	JobFailed    JobStatus = "FAILED"
)

// JobTypeIndexSource is the only job type the pipeline currently dispatches.
const JobTypeIndexSource = "index_source"

// IndexMode distinguishes a regular run from one triggered by a repair.
type IndexMode string

const (
	IndexModeFull   IndexMode = "full"
	IndexModeRepair IndexMode = "repair"
)

// Job records one indexing attempt for a source. Job status is independent
// of, but causally drives, source status: a failed job forces the source to
// FAILED, a succeeded job forces it to READY.
type Job struct {
	ID          string
	TenantID    string
	Type        string
	Status      JobStatus
	SourceID    string
	LastError   string
	Progress    int // 0-100
	RequestedBy string
	Mode        IndexMode
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

// TicketStatus is the workflow state of a helpdesk ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

// TicketPriority orders tickets by urgency.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
	PriorityUrgent TicketPriority = "URGENT"
)

// Ticket is a helpdesk ticket. The pipeline reads tickets to build retrieval
// queries and appends AI-drafted comments to them.
type Ticket struct {
	ID          string
	TenantID    string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	RequesterID string
	AssigneeID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a single ticket comment.
type Comment struct {
	ID        string
	TenantID  string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Hit is one retrieved chunk, annotated with the similarity to the query
// embedding and joined with its parent source's metadata.
type Hit struct {
	ChunkID    ChunkID
	SourceID   string
	Filename   string
	MimeType   string
	Ordinal    int
	Similarity float32 // cosine similarity, in [-1, 1]
	Content    string
	Snippet    string
}

// Citation points at a source chunk the model claims to have used.
type Citation struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	ChunkID  string `json:"chunkId"`
}

// StructuredReply is the parsed shape of a generated assist response.
type StructuredReply struct {
	CustomerReply        string     `json:"customer_reply"`
	InternalNotes        string     `json:"internal_notes"`
	NextSteps            []string   `json:"next_steps"`
	QuestionsForCustomer []string   `json:"questions_for_customer"`
	Citations            []Citation `json:"citations"`
}

// UsageEvent is a single metering record. Usage writes are always
// best-effort; readers aggregate them for quota enforcement.
type UsageEvent struct {
	ID        uint64
	TenantID  string
	UserID    string
	Type      string
	Amount    int64
	Meta      map[string]string
	CreatedAt time.Time
}

// Usage event types emitted by the pipeline.
const (
	UsageKbEmbedding  = "KB_EMBEDDING"
	UsageAiAssistCall = "AI_ASSIST_CALL"
)
