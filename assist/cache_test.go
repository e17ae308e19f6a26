package assist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplyCache(t *testing.T) {
	cache := NewReplyCache(time.Minute, 10)

	assert.Nil(t, cache.Get(1))

	result := &Result{Raw: "draft"}
	cache.Put(1, result)
	assert.Same(t, result, cache.Get(1))
	assert.Equal(t, 1, cache.Len())
}

func TestReplyCache_TTL(t *testing.T) {
	cache := NewReplyCache(time.Minute, 10)
	now := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Put(1, &Result{Raw: "draft"})
	assert.NotNil(t, cache.Get(1))

	now = now.Add(59 * time.Second)
	assert.NotNil(t, cache.Get(1))

	now = now.Add(2 * time.Second)
	assert.Nil(t, cache.Get(1))
	// Expired entries are dropped on access.
	assert.Equal(t, 0, cache.Len())
}

func TestReplyCache_EvictsOldest(t *testing.T) {
	cache := NewReplyCache(time.Minute, 3)
	now := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := uint64(1); i <= 3; i++ {
		cache.Put(i, &Result{})
		now = now.Add(time.Second)
	}
	assert.Equal(t, 3, cache.Len())

	// Key 1 has the earliest expiry; inserting a fourth entry evicts it.
	cache.Put(4, &Result{})
	assert.Equal(t, 3, cache.Len())
	assert.Nil(t, cache.Get(1))
	assert.NotNil(t, cache.Get(2))
	assert.NotNil(t, cache.Get(4))
}

func TestReplyCache_OverwriteDoesNotEvict(t *testing.T) {
	cache := NewReplyCache(time.Minute, 2)

	cache.Put(1, &Result{Raw: "first"})
	cache.Put(2, &Result{})
	cache.Put(1, &Result{Raw: "second"})

	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, "second", cache.Get(1).Raw)
	assert.NotNil(t, cache.Get(2))
}

func TestNewReplyCache_Defaults(t *testing.T) {
	cache := NewReplyCache(0, 0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
	assert.Equal(t, DefaultCacheMaxItems, cache.maxItems)
}
