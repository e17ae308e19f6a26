package storage

import (
	"testing"
	"time"

	"github.com/crestdesk/crestdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalSource(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		source *core.Source
	}{
		{
			name: "queued source without index timestamp",
			source: &core.Source{
				ID:        "src-1",
				TenantID:  "acme",
				Filename:  "faq.md",
				MimeType:  "text/markdown",
				SizeBytes: 2048,
				Status:    core.SourceQueued,
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "ready source with index timestamp and storage path",
			source: &core.Source{
				ID:          "src-2",
				TenantID:    "acme",
				Filename:    "handbook.pdf",
				MimeType:    "application/pdf",
				SizeBytes:   1 << 20,
				Status:      core.SourceReady,
				StoragePath: "/data/files/acme/src-2/handbook.pdf",
				IndexedAt:   now.Add(time.Minute),
				CreatedAt:   now,
				UpdatedAt:   now.Add(time.Minute),
			},
		},
		{
			name: "failed source with error message",
			source: &core.Source{
				ID:        "src-3",
				TenantID:  "acme",
				Filename:  "empty.txt",
				MimeType:  "text/plain",
				Status:    core.SourceFailed,
				Error:     "no text found in source file",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalSource(tt.source)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalSource(data)
			require.NoError(t, err)
			assert.Equal(t, tt.source, decoded)
		})
	}
}

func TestUnmarshalSource_Truncated(t *testing.T) {
	source := &core.Source{
		ID:        "src-1",
		TenantID:  "acme",
		Filename:  "faq.md",
		Status:    core.SourceQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	data := MarshalSource(source)

	_, err := UnmarshalSource(data[:len(data)/2])
	assert.Error(t, err)

	_, err = UnmarshalSource([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "chunk without vector",
			chunk: &core.Chunk{
				ID:        core.ChunkID(1),
				TenantID:  "acme",
				SourceID:  "src-1",
				Ordinal:   0,
				Content:   "How do I reset my password?",
				CreatedAt: now,
			},
		},
		{
			name: "chunk with vector and metadata",
			chunk: &core.Chunk{
				ID:        core.ChunkID(42),
				TenantID:  "acme",
				SourceID:  "src-1",
				Ordinal:   3,
				Content:   "Billing invoices are sent on the 1st.",
				Vector:    []float32{0.25, -0.5, 0.125, 1.0},
				Meta:      map[string]string{"section": "billing", "lang": "en"},
				CreatedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalChunk(MarshalChunk(tt.chunk))
			require.NoError(t, err)
			assert.Equal(t, tt.chunk.ID, decoded.ID)
			assert.Equal(t, tt.chunk.Content, decoded.Content)
			assert.Equal(t, tt.chunk.Vector, decoded.Vector)
			assert.Equal(t, tt.chunk.Meta, decoded.Meta)
			assert.Equal(t, tt.chunk.CreatedAt, decoded.CreatedAt)
		})
	}
}

func TestMarshalUnmarshalJob(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := &core.Job{
		ID:          "job-1",
		TenantID:    "acme",
		Type:        core.JobTypeIndexSource,
		Status:      core.JobRunning,
		SourceID:    "src-1",
		LastError:   "",
		Progress:    25,
		RequestedBy: "agent-7",
		Mode:        core.IndexModeRepair,
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Second),
	}

	decoded, err := UnmarshalJob(MarshalJob(job))
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}

func TestMarshalUnmarshalComment(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	comment := &core.Comment{
		ID:        "cmt-1",
		TenantID:  "acme",
		TicketID:  "tkt-1",
		AuthorID:  "system-ai-assist",
		Body:      "[AI Assist] Draft reply:\nHello!",
		CreatedAt: now,
	}

	decoded, err := UnmarshalComment(MarshalComment(comment))
	require.NoError(t, err)
	assert.Equal(t, comment, decoded)
}

func TestMarshalUnmarshalUsageEvent(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	event := &core.UsageEvent{
		ID:       7,
		TenantID: "acme",
		UserID:   "agent-7",
		Type:     core.UsageAiAssistCall,
		Amount:   1,
		Meta: map[string]string{
			"ticketId": "tkt-1",
			"dryRun":   "false",
		},
		CreatedAt: now,
	}

	decoded, err := UnmarshalUsageEvent(MarshalUsageEvent(event))
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}
