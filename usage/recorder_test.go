package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestdesk/crestdesk/core"
	badgerstore "github.com/crestdesk/crestdesk/storage/badger"
)

func TestRecorder(t *testing.T) {
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	recorder := NewRecorder(store.Usage)
	ctx := context.Background()

	recorder.Log(ctx, &core.UsageEvent{
		TenantID: "acme",
		Type:     core.UsageAiAssistCall,
		Amount:   1,
	})
	recorder.Log(ctx, &core.UsageEvent{
		TenantID: "acme",
		Type:     core.UsageAiAssistCall,
		Amount:   1,
	})
	recorder.Log(ctx, &core.UsageEvent{
		TenantID: "acme",
		Type:     core.UsageKbEmbedding,
		Amount:   40,
	})

	start, end := MonthWindow(time.Now())
	total, err := recorder.Sum(ctx, "acme", core.UsageAiAssistCall, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRecorderLog_BestEffort(t *testing.T) {
	ctx := context.Background()
	event := &core.UsageEvent{TenantID: "acme", Type: core.UsageAiAssistCall, Amount: 1}

	// Neither a nil recorder nor a recorder without a repository panics;
	// metering must never break the metered operation.
	var nilRecorder *Recorder
	nilRecorder.Log(ctx, event)
	(&Recorder{}).Log(ctx, event)

	// A tenant-less event fails the storage write; Log swallows it.
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	NewRecorder(store.Usage).Log(ctx, &core.UsageEvent{Type: core.UsageAiAssistCall})
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2025, time.March, 15, 13, 45, 0, 0, time.UTC)
	start, end := MonthWindow(now)

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthWindow_YearRollover(t *testing.T) {
	now := time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC)
	start, end := MonthWindow(now)

	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthWindow_NonUTCInput(t *testing.T) {
	// A local timestamp near a month boundary bills into the UTC month.
	loc := time.FixedZone("UTC+14", 14*3600)
	now := time.Date(2025, time.June, 1, 1, 0, 0, 0, loc) // May 31 in UTC
	start, _ := MonthWindow(now)

	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), start)
}
