// Copyright 2025 Crestdesk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package assist

import (
	"sync"
	"time"
)

// Preview cache bounds.
const (
	DefaultCacheTTL      = 60 * time.Second
	DefaultCacheMaxItems = 500
)

// ReplyCache is a bounded TTL cache for dry-run assist results. Each
// service owns its cache instance; nothing is shared process-wide.
type ReplyCache struct {
	ttl      time.Duration
	maxItems int

	mu      sync.Mutex
	entries map[uint64]*cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	result  *Result
	expires time.Time
}

// NewReplyCache creates a cache with the given TTL and size bound.
// Non-positive arguments select the defaults.
func NewReplyCache(ttl time.Duration, maxItems int) *ReplyCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxItems <= 0 {
		maxItems = DefaultCacheMaxItems
	}
	return &ReplyCache{
		ttl:      ttl,
		maxItems: maxItems,
		entries:  make(map[uint64]*cacheEntry),
		now:      time.Now,
	}
}

// Get returns the cached result for key, or nil when absent or expired.
func (c *ReplyCache) Get(key uint64) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil
	}
	return entry.result
}

// Put stores the result under key with a fresh expiry. When the cache
// is full, the entry closest to expiring is evicted first.
func (c *ReplyCache) Put(key uint64, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxItems {
		c.evictOldest()
	}
	c.entries[key] = &cacheEntry{
		result:  result,
		expires: c.now().Add(c.ttl),
	}
}

// Len returns the number of live entries, expired ones included until
// they are touched.
func (c *ReplyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest expiry.
// Caller must hold the lock.
func (c *ReplyCache) evictOldest() {
	var oldestKey uint64
	var oldest time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.expires.Before(oldest) {
			oldestKey = key
			oldest = entry.expires
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
