package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v        []byte
	exp      time.Time
	lastUsed time.Time
}

// MemoryCache is an in-process TTL cache that evicts the least recently used
// entry once MaxSize is reached.
type MemoryCache struct {
	mu      sync.Mutex
	m       map[string]*entry
	maxSize int
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most maxSize entries (<= 0 means 1000).
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{m: make(map[string]*entry), maxSize: maxSize, now: time.Now}
}

func (c *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if !e.exp.IsZero() && now.After(e.exp) {
		delete(c.m, key)
		return nil, false, nil
	}
	e.lastUsed = now
	return e.v, true, nil
}

// SetBytes stores value; ttl <= 0 never expires.
func (c *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxSize {
		c.evictLRU()
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.m[key] = &entry{v: value, exp: exp, lastUsed: now}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.m {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey, oldest = k, e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(c.m, oldestKey)
	}
}
