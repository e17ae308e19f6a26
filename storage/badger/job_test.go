package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

func seedSource(t *testing.T, store *Store, tenantID, id string) {
	t.Helper()
	_, err := store.Sources.CreateSource(context.Background(), &core.Source{
		ID:       id,
		TenantID: tenantID,
		Filename: id + ".md",
		Status:   core.SourceQueued,
	})
	if err != nil {
		t.Fatalf("Failed to seed source %s: %v", id, err)
	}
}

func TestCreateJobResetSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	// Put the source into a dirty FAILED state first.
	source, err := store.Sources.GetSource(ctx, "acme", "src-1")
	if err != nil {
		t.Fatalf("Failed to get source: %v", err)
	}
	source.Status = core.SourceFailed
	source.Error = "previous run exploded"
	if _, err := store.Sources.UpdateSource(ctx, source); err != nil {
		t.Fatalf("Failed to update source: %v", err)
	}

	job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{
		TenantID:    "acme",
		SourceID:    "src-1",
		RequestedBy: "agent-7",
		Mode:        core.IndexModeFull,
	})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("Expected a generated job ID")
	}
	if job.Type != core.JobTypeIndexSource {
		t.Fatalf("Expected default job type, got %q", job.Type)
	}
	if job.Status != core.JobQueued {
		t.Fatalf("Expected QUEUED, got %q", job.Status)
	}

	reset, err := store.Sources.GetSource(ctx, "acme", "src-1")
	if err != nil {
		t.Fatalf("Failed to get reset source: %v", err)
	}
	if reset.Status != core.SourceQueued {
		t.Fatalf("Expected source QUEUED after reset, got %q", reset.Status)
	}
	if reset.Error != "" {
		t.Fatalf("Expected error cleared, got %q", reset.Error)
	}
	if !reset.IndexedAt.IsZero() {
		t.Fatal("Expected IndexedAt cleared")
	}
}

func TestCreateJobResetSource_MissingSource(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Jobs.CreateJobResetSource(context.Background(), &core.Job{
		TenantID: "acme",
		SourceID: "missing",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestJobLifecycle_Complete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	running, err := store.Jobs.MarkJobRunning(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to mark running: %v", err)
	}
	if running.Status != core.JobRunning {
		t.Fatalf("Expected RUNNING, got %q", running.Status)
	}

	if err := store.Jobs.UpdateJobProgress(ctx, job.ID, 25); err != nil {
		t.Fatalf("Failed to update progress: %v", err)
	}
	if err := store.Jobs.CompleteJob(ctx, job.ID, "acme", "src-1"); err != nil {
		t.Fatalf("Failed to complete job: %v", err)
	}

	done, err := store.Jobs.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if done.Status != core.JobSucceeded {
		t.Fatalf("Expected SUCCEEDED, got %q", done.Status)
	}
	if done.Progress != 100 {
		t.Fatalf("Expected progress 100, got %d", done.Progress)
	}

	source, err := store.Sources.GetSource(ctx, "acme", "src-1")
	if err != nil {
		t.Fatalf("Failed to get source: %v", err)
	}
	if source.Status != core.SourceReady {
		t.Fatalf("Expected source READY, got %q", source.Status)
	}
	if source.IndexedAt.IsZero() {
		t.Fatal("Expected IndexedAt set on completion")
	}
}

func TestJobLifecycle_Fail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	if err := store.Jobs.FailJob(ctx, job.ID, "acme", "src-1", "no text found in source file"); err != nil {
		t.Fatalf("Failed to fail job: %v", err)
	}

	failed, err := store.Jobs.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if failed.Status != core.JobFailed {
		t.Fatalf("Expected FAILED, got %q", failed.Status)
	}
	if failed.LastError != "no text found in source file" {
		t.Fatalf("Unexpected error message %q", failed.LastError)
	}

	source, err := store.Sources.GetSource(ctx, "acme", "src-1")
	if err != nil {
		t.Fatalf("Failed to get source: %v", err)
	}
	if source.Status != core.SourceFailed {
		t.Fatalf("Expected source FAILED, got %q", source.Status)
	}
	if source.Error != "no text found in source file" {
		t.Fatalf("Unexpected source error %q", source.Error)
	}
}

func TestFailJob_SourceAlreadyDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	// A delete racing the worker leaves the failure write pointing at a
	// source that no longer exists; the job row still records the failure.
	if err := store.Jobs.FailJob(ctx, job.ID, "acme", "ghost", "worker lost the source"); err != nil {
		t.Fatalf("FailJob should tolerate a missing source, got %v", err)
	}
	failed, err := store.Jobs.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if failed.Status != core.JobFailed {
		t.Fatalf("Expected FAILED, got %q", failed.Status)
	}
}

func TestFailJob_DefaultMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	if err := store.Jobs.FailJob(ctx, job.ID, "acme", "src-1", ""); err != nil {
		t.Fatalf("Failed to fail job: %v", err)
	}

	failed, err := store.Jobs.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if failed.LastError != "indexing failed" {
		t.Fatalf("Expected default message, got %q", failed.LastError)
	}
}

func TestLatestJobForSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")

	var last *core.Job
	for i := 0; i < 3; i++ {
		job, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
		if err != nil {
			t.Fatalf("Failed to create job %d: %v", i, err)
		}
		last = job
		// Creation timestamps order the index; keep them distinct.
		time.Sleep(2 * time.Millisecond)
	}

	latest, err := store.Jobs.LatestJobForSource(ctx, "acme", "src-1")
	if err != nil {
		t.Fatalf("Failed to get latest job: %v", err)
	}
	if latest.ID != last.ID {
		t.Fatalf("Expected latest job %s, got %s", last.ID, latest.ID)
	}

	_, err = store.Jobs.LatestJobForSource(ctx, "acme", "never-indexed")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListJobsByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSource(t, store, "acme", "src-1")
	seedSource(t, store, "acme", "src-2")

	job1, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-1"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	job2, err := store.Jobs.CreateJobResetSource(ctx, &core.Job{TenantID: "acme", SourceID: "src-2"})
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	if _, err := store.Jobs.MarkJobRunning(ctx, job1.ID); err != nil {
		t.Fatalf("Failed to mark running: %v", err)
	}

	queued, err := store.Jobs.ListJobsByStatus(ctx, core.JobQueued)
	if err != nil {
		t.Fatalf("Failed to list queued jobs: %v", err)
	}
	if len(queued) != 1 || queued[0].ID != job2.ID {
		t.Fatalf("Expected just job2 queued, got %v", queued)
	}

	_, err = store.Jobs.ListJobsByStatus(ctx, "BOGUS")
	if !errors.Is(err, storage.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery, got %v", err)
	}
}
