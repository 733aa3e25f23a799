package dns

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type memEntry struct {
	chain   []string
	expires time.Time
}

// MemoryCache is a bounded in-process CNAMECache with per-entry expiry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memEntry
	maxEntries int
	now        func() time.Time
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, host string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[host]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, host)
		return nil, false, nil
	}
	return append([]string(nil), e.chain...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, host string, chain []string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[host]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[host] = memEntry{chain: append([]string(nil), chain...), expires: c.now().Add(ttl)}
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when
// none have expired.
func (c *MemoryCache) evictLocked() {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
