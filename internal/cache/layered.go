package cache

import (
	"context"
	"time"
)

// LayeredCache reads memory first, then Redis, and writes through to both.
type LayeredCache struct {
	mem    *MemoryCache
	remote Cache
	// memTTL bounds how long an L2 hit is kept in memory.
	memTTL time.Duration
}

// NewLayeredCache combines an in-process L1 with a shared L2.
func NewLayeredCache(mem *MemoryCache, remote Cache, memTTL time.Duration) *LayeredCache {
	return &LayeredCache{mem: mem, remote: remote, memTTL: memTTL}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := lc.mem.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := lc.remote.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.mem.SetBytes(ctx, key, b, lc.memTTL)
	return b, true, nil
}

// SetBytes writes Redis first; memory is only filled once the shared copy exists.
func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.remote.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	memTTL := ttl
	if lc.memTTL > 0 && (memTTL <= 0 || lc.memTTL < memTTL) {
		memTTL = lc.memTTL
	}
	return lc.mem.SetBytes(ctx, key, value, memTTL)
}

func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}
