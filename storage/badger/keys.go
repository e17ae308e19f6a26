package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/crestdesk/crestdesk/core"
)

// Key prefixes for different data types
const (
	sourcePrefix    = "src"
	chunkPrefix     = "chk"
	chunkIDSeq      = "chkseq"
	jobPrefix       = "job"
	jobSourcePrefix = "jobsrc"
	ticketPrefix    = "tkt"
	commentPrefix   = "tktc"
	usagePrefix     = "use"
	usageEventIDSeq = "useseq"
)

// makeSourceKey generates a key for a source scoped to its tenant.
func makeSourceKey(tenantID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", sourcePrefix, tenantID, id))
}

// makeSourceScanKey generates the prefix covering all of a tenant's sources.
func makeSourceScanKey(tenantID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", sourcePrefix, tenantID))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:tenant:sourceID:chunkID, chunkID in BigEndian so
// lexicographic iteration preserves insertion order.
func makeChunkKey(tenantID, sourceID string, id core.ChunkID) []byte {
	prefix := fmt.Sprintf("%s:%s:%s:", chunkPrefix, tenantID, sourceID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkSourceScanKey generates the prefix covering one source's chunks.
func makeChunkSourceScanKey(tenantID, sourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkPrefix, tenantID, sourceID))
}

// makeChunkScanKey generates the prefix covering all of a tenant's chunks.
func makeChunkScanKey(tenantID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenantID))
}

// makeJobKey generates a key for a job by ID. Jobs are keyed globally so
// the worker can look one up without knowing the tenant.
func makeJobKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, id))
}

// makeJobScanKey generates the prefix covering all jobs.
func makeJobScanKey() []byte {
	return []byte(jobPrefix + ":")
}

// makeJobSourceKey generates a composite index key mapping a source to its
// jobs in creation order. Format: prefix:tenant:sourceID:createdAt:jobID,
// timestamp in BigEndian so lexicographic sort works correctly.
func makeJobSourceKey(tenantID, sourceID string, createdAt time.Time, jobID string) []byte {
	prefix := fmt.Sprintf("%s:%s:%s:", jobSourcePrefix, tenantID, sourceID)
	buf := make([]byte, len(prefix)+8+len(jobID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], jobID)
	return buf
}

// makeJobSourceScanKey generates the prefix covering one source's job index.
func makeJobSourceScanKey(tenantID, sourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", jobSourcePrefix, tenantID, sourceID))
}

// makeTicketKey generates a key for a ticket scoped to its tenant.
func makeTicketKey(tenantID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", ticketPrefix, tenantID, id))
}

// makeCommentKey generates a composite key for a ticket comment.
// Format: prefix:tenant:ticketID:createdAt:commentID, timestamp in
// BigEndian so iteration yields comments oldest first.
func makeCommentKey(tenantID, ticketID string, createdAt time.Time, id string) []byte {
	prefix := fmt.Sprintf("%s:%s:%s:", commentPrefix, tenantID, ticketID)
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeCommentScanKey generates the prefix covering one ticket's comments.
func makeCommentScanKey(tenantID, ticketID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", commentPrefix, tenantID, ticketID))
}

// makeUsageKey generates a composite key for a usage event.
// Format: prefix:tenant:createdAt:seq, both numbers in BigEndian so a
// prefix scan walks events in time order and range bounds work.
func makeUsageKey(tenantID string, createdAt time.Time, seq uint64) []byte {
	prefix := fmt.Sprintf("%s:%s:", usagePrefix, tenantID)
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makePartialUsageKey generates a partial key bounding a time range scan.
func makePartialUsageKey(tenantID string, ts time.Time) []byte {
	prefix := fmt.Sprintf("%s:%s:", usagePrefix, tenantID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ts.UnixMicro()))
	return buf
}

// makeUsageScanKey generates the prefix covering all of a tenant's events.
func makeUsageScanKey(tenantID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", usagePrefix, tenantID))
}
