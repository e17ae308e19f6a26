package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestdesk/crestdesk/ai/mock"
	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/kb"
	badgerstore "github.com/crestdesk/crestdesk/storage/badger"
	"github.com/crestdesk/crestdesk/usage"
)

type noopQueue struct{}

func (noopQueue) Submit(ctx context.Context, jobID string) error { return nil }

type indexerFixture struct {
	store   *badgerstore.Store
	files   *kb.FileStore
	indexer *Indexer
}

func newFixture(t *testing.T) *indexerFixture {
	t.Helper()
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	files, err := kb.NewFileStore(t.TempDir())
	require.NoError(t, err)

	service := kb.NewService(store.Sources, store.Chunks, store.Jobs,
		mock.NewMockEmbedder(), files, noopQueue{}, nil)
	recorder := usage.NewRecorder(store.Usage)

	return &indexerFixture{
		store:   store,
		files:   files,
		indexer: NewIndexer(store.Sources, store.Jobs, service, files, recorder),
	}
}

// seedJob stores a source with the given file content and a QUEUED job
// for it, mirroring what the upload path persists.
func (f *indexerFixture) seedJob(t *testing.T, content string) *core.Job {
	t.Helper()
	ctx := context.Background()

	path, err := f.files.Save("acme", "src-1", "doc.txt", []byte(content))
	require.NoError(t, err)

	_, err = f.store.Sources.CreateSource(ctx, &core.Source{
		ID:          "src-1",
		TenantID:    "acme",
		Filename:    "doc.txt",
		MimeType:    "text/plain",
		SizeBytes:   int64(len(content)),
		Status:      core.SourceQueued,
		StoragePath: path,
	})
	require.NoError(t, err)

	job, err := f.store.Jobs.CreateJobResetSource(ctx, &core.Job{
		TenantID:    "acme",
		SourceID:    "src-1",
		RequestedBy: "agent-7",
		Mode:        core.IndexModeFull,
	})
	require.NoError(t, err)
	return job
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := "How do I reset my password?\n\nGo to settings and click reset."
	job := f.seedJob(t, text)

	require.NoError(t, f.indexer.Process(ctx, job.ID))

	done, err := f.store.Jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobSucceeded, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Empty(t, done.LastError)

	source, err := f.store.Sources.GetSource(ctx, "acme", "src-1")
	require.NoError(t, err)
	assert.Equal(t, core.SourceReady, source.Status)
	assert.False(t, source.IndexedAt.IsZero())
	assert.Empty(t, source.Error)

	count, err := f.store.Chunks.CountChunks(ctx, "acme", "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The run metered one embedding event covering every stored chunk.
	start, end := usage.MonthWindow(time.Now())
	total, err := f.store.Usage.SumAmount(ctx, "acme", core.UsageKbEmbedding, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(count), total)
}

func TestProcess_LongDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two large paragraphs force multiple chunks.
	text := strings.Repeat("alpha ", 300) + "\n\n" + strings.Repeat("beta ", 300)
	job := f.seedJob(t, text)

	require.NoError(t, f.indexer.Process(ctx, job.ID))

	count, err := f.store.Chunks.CountChunks(ctx, "acme", "src-1")
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	// Every chunk got an embedding and is retrievable.
	matches, err := f.store.Chunks.SearchChunks(ctx, "acme", []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, matches, count)
}

func TestProcess_EmptyFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.seedJob(t, "   \n  \n ")

	err := f.indexer.Process(ctx, job.ID)
	require.Error(t, err)

	failed, err := f.store.Jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobFailed, failed.Status)
	assert.Equal(t, "no text found in source file", failed.LastError)

	source, err := f.store.Sources.GetSource(ctx, "acme", "src-1")
	require.NoError(t, err)
	assert.Equal(t, core.SourceFailed, source.Status)
	assert.Equal(t, "no text found in source file", source.Error)
}

func TestProcess_MissingStorageFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Sources.CreateSource(ctx, &core.Source{
		ID:       "src-1",
		TenantID: "acme",
		Filename: "doc.txt",
		Status:   core.SourceQueued,
	})
	require.NoError(t, err)
	job, err := f.store.Jobs.CreateJobResetSource(ctx, &core.Job{
		TenantID: "acme",
		SourceID: "src-1",
	})
	require.NoError(t, err)

	err = f.indexer.Process(ctx, job.ID)
	require.Error(t, err)

	failed, err := f.store.Jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobFailed, failed.Status)
	assert.Contains(t, failed.LastError, "missing storage file")
}

func TestProcess_UnknownJob(t *testing.T) {
	f := newFixture(t)

	err := f.indexer.Process(context.Background(), "no-such-job")
	assert.Error(t, err)
}

func TestProcess_Reindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.seedJob(t, "Original content about password resets.")

	require.NoError(t, f.indexer.Process(ctx, job.ID))

	// Replace the file and run a fresh job; the chunk set is rebuilt.
	path, err := f.files.Save("acme", "src-1", "doc.txt", []byte("Rewritten content.\n\nAbout invoices instead."))
	require.NoError(t, err)
	source, err := f.store.Sources.GetSource(ctx, "acme", "src-1")
	require.NoError(t, err)
	source.StoragePath = path
	_, err = f.store.Sources.UpdateSource(ctx, source)
	require.NoError(t, err)

	again, err := f.store.Jobs.CreateJobResetSource(ctx, &core.Job{
		TenantID: "acme",
		SourceID: "src-1",
		Mode:     core.IndexModeRepair,
	})
	require.NoError(t, err)
	require.NoError(t, f.indexer.Process(ctx, again.ID))

	count, err := f.store.Chunks.CountChunks(ctx, "acme", "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	done, err := f.store.Jobs.GetJob(ctx, again.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobSucceeded, done.Status)
}
