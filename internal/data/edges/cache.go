package edges

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
)

// DefaultTTL bounds how long a cached root is served when no eviction reaches it.
const DefaultTTL = 10 * time.Minute

// Cache stores encoded roots under opaque keys. Missing keys are absent from Get's result.
//
// Every Delete bumps a per-key generation. A reader that loads a root from the database reads
// the generation first and passes it to Fill, which drops the write when an eviction happened
// in between, so a concurrent commit never has its old value written back.
type Cache interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	// Generations reports the eviction generation of each key; a never evicted key is 0.
	Generations(ctx context.Context, keys []string) (map[string]int64, error)
	// Fill stores each item whose key is still at the generation recorded in gens.
	// Keys missing from gens are skipped.
	Fill(ctx context.Context, items map[string][]byte, gens map[string]int64) error
	Delete(ctx context.Context, keys []string) error
}

const keyPrefix = "railnet:edge"

// Key is the cache key of one aggregate root.
func Key(aggregate, id string) string {
	return keyPrefix + ":" + aggregate + ":" + id
}

func keys(aggregate string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, Key(aggregate, id))
	}
	return out
}

// Invalidator evicts cached roots after their store commits a write.
type Invalidator struct {
	cache Cache
}

var _ aggregates.ChangeListener = (*Invalidator)(nil)

func NewInvalidator(cache Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) RootChanged(ctx context.Context, change aggregates.Change) error {
	if i == nil || i.cache == nil || len(change.IDs) == 0 {
		return nil
	}
	return i.cache.Delete(ctx, keys(change.Aggregate, change.IDs))
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local Cache used when no Redis address is configured.
// Entries expire after the same TTL the Redis cache applies.
type MemoryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memoryEntry
	gens  map[string]int64
	now   func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache uses DefaultTTL when ttl is not positive.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:   ttl,
		items: map[string]memoryEntry{},
		gens:  map[string]int64{},
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := c.items[k]; ok && now.Before(e.expires) {
			out[k] = append([]byte(nil), e.value...)
		}
	}
	return out, nil
}

func (c *MemoryCache) Generations(_ context.Context, keys []string) (map[string]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[k] = c.gens[k]
	}
	return out, nil
}

func (c *MemoryCache) Fill(_ context.Context, items map[string][]byte, gens map[string]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires := c.now().Add(c.ttl)
	for k, v := range items {
		gen, ok := gens[k]
		if !ok || gen != c.gens[k] {
			continue
		}
		c.items[k] = memoryEntry{value: append([]byte(nil), v...), expires: expires}
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		c.gens[k]++
	}
	return nil
}

// Len counts live cached entries, optionally restricted to one aggregate.
func (c *MemoryCache) Len(aggregate string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	prefix := Key(aggregate, "")
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expires) {
			continue
		}
		if aggregate == "" || strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}
