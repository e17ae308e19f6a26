package core

import (
	"errors"
	"testing"
	"time"
)

func validSource() *Source {
	return &Source{
		ID:       "src-1",
		TenantID: "acme",
		Filename: "guide.pdf",
		Status:   SourceQueued,
	}
}

func TestValidateSource(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		mutate  func(*Source)
		wantErr error
	}{
		{"valid queued source", func(s *Source) {}, nil},
		{"nil tenant", func(s *Source) { s.TenantID = "" }, ErrEmptyTenant},
		{"unknown status", func(s *Source) { s.Status = "PENDING" }, ErrInvalidStatus},
		{
			"ready without timestamp",
			func(s *Source) { s.Status = SourceReady },
			ErrReadyWithoutTimestamp,
		},
		{
			"ready with error",
			func(s *Source) { s.Status = SourceReady; s.IndexedAt = now; s.Error = "boom" },
			ErrReadyWithError,
		},
		{
			"ready and clean",
			func(s *Source) { s.Status = SourceReady; s.IndexedAt = now },
			nil,
		},
		{
			"failed without error",
			func(s *Source) { s.Status = SourceFailed },
			ErrFailedWithoutError,
		},
		{
			"failed with error",
			func(s *Source) { s.Status = SourceFailed; s.Error = "boom" },
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := validSource()
			tt.mutate(source)

			err := ValidateSource(source)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSource() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSource() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidSource) {
				t.Errorf("ValidateSource() error should wrap ErrInvalidSource, got %v", err)
			}
		})
	}
}

func TestValidateSource_Nil(t *testing.T) {
	if err := ValidateSource(nil); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("ValidateSource(nil) = %v, want ErrInvalidSource", err)
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			"valid chunk",
			&Chunk{TenantID: "acme", SourceID: "src-1", Ordinal: 0, Content: "text"},
			nil,
		},
		{
			"valid chunk without vector",
			&Chunk{TenantID: "acme", SourceID: "src-1", Ordinal: 3, Content: "text"},
			nil,
		},
		{
			"empty tenant",
			&Chunk{SourceID: "src-1", Content: "text"},
			ErrEmptyTenant,
		},
		{
			"empty source",
			&Chunk{TenantID: "acme", Content: "text"},
			ErrInvalidChunk,
		},
		{
			"empty content",
			&Chunk{TenantID: "acme", SourceID: "src-1"},
			ErrEmptyContent,
		},
		{
			"negative ordinal",
			&Chunk{TenantID: "acme", SourceID: "src-1", Ordinal: -1, Content: "text"},
			ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJob(t *testing.T) {
	tests := []struct {
		name    string
		job     *Job
		wantErr error
	}{
		{
			"valid queued job",
			&Job{TenantID: "acme", SourceID: "src-1", Status: JobQueued},
			nil,
		},
		{
			"failed without message",
			&Job{TenantID: "acme", SourceID: "src-1", Status: JobFailed},
			ErrFailedWithoutError,
		},
		{
			"failed with message",
			&Job{TenantID: "acme", SourceID: "src-1", Status: JobFailed, LastError: "boom"},
			nil,
		},
		{
			"bad status",
			&Job{TenantID: "acme", SourceID: "src-1", Status: "WAITING"},
			ErrInvalidStatus,
		},
		{
			"empty tenant",
			&Job{SourceID: "src-1", Status: JobQueued},
			ErrEmptyTenant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJob(tt.job)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateJob() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateJob() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
