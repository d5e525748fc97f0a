// Package cache provides a sharded in-memory TTL cache used to memoize
// expensive GA4 API calls. Keys are namespaced strings ("properties:list",
// "query:<id>:<fingerprint>", ...); values are opaque.
package cache

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultShardCount = 16

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// Cache is a key→value store with per-entry expiry. Entries for different
// keys live in independent shards so concurrent multi-property fan-out does
// not serialize on a single lock.
type Cache struct {
	shards []*shard
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithShardCount overrides the number of shards.
func WithShardCount(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.shards = make([]*shard, n)
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		shards: make([]*shard, defaultShardCount),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return c
}

func (c *Cache) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[int(h.Sum32())%len(c.shards)]
}

// Get returns the cached value for key if present and not expired.
// Expired entries are evicted lazily.
func (c *Cache) Get(key string) (any, bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if ent.expired(now) {
		s.mu.Lock()
		// Re-check under the write lock: the entry may have been replaced.
		if cur, ok := s.entries[key]; ok && cur.expired(c.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return ent.value, true
}

// Set inserts or overwrites key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = entry{value: value, insertedAt: c.now(), ttl: ttl}
	s.mu.Unlock()
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// InvalidatePattern removes all keys containing the given substring and
// returns how many were removed.
func (c *Cache) InvalidatePattern(pattern string) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for key := range s.entries {
			if strings.Contains(key, pattern) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Clear removes all entries and returns how many were removed.
func (c *Cache) Clear() int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		removed += len(s.entries)
		s.entries = make(map[string]entry)
		s.mu.Unlock()
	}
	return removed
}

// KeyInfo describes one cached entry for diagnostics.
type KeyInfo struct {
	Key        string  `json:"key"`
	AgeSeconds float64 `json:"age_seconds"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Expired    bool    `json:"expired"`
}

// Status is a read-only snapshot of the cache contents.
type Status struct {
	EntryCount   int       `json:"entry_count"`
	ValidEntries int       `json:"valid_entries"`
	Keys         []KeyInfo `json:"keys,omitempty"`
}

// Status reports every entry, including expired ones awaiting lazy eviction.
// It never mutates the cache.
func (c *Cache) Status() Status {
	now := c.now()
	var keys []KeyInfo
	for _, s := range c.shards {
		s.mu.RLock()
		for key, ent := range s.entries {
			keys = append(keys, KeyInfo{
				Key:        key,
				AgeSeconds: now.Sub(ent.insertedAt).Seconds(),
				TTLSeconds: ent.ttl.Seconds(),
				Expired:    ent.expired(now),
			})
		}
		s.mu.RUnlock()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })

	status := Status{EntryCount: len(keys), Keys: keys}
	for _, k := range keys {
		if !k.Expired {
			status.ValidEntries++
		}
	}
	return status
}
