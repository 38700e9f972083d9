package cache

import (
	"context"
	"time"
)

const fallbackMemTTL = time.Minute

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
type LayeredCache struct {
	mem    *MemoryCache
	remote Service
}

var _ Service = (*LayeredCache)(nil)

// NewLayeredCache puts an in-process cache of memSize entries in front of remote.
func NewLayeredCache(remote Service, memSize int) *LayeredCache {
	return &LayeredCache{
		mem:    NewMemoryCache(MemoryConfig{MaxSize: memSize}),
		remote: remote,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	// write-through: remote first
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, expiration)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	if err := lc.mem.Get(ctx, key, &raw); err == nil {
		return unmarshal(raw, dest)
	}
	if err := lc.remote.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, raw, lc.memTTL(ctx, key))
	return unmarshal(raw, dest)
}

// ttlReader reports how long a key has left to live.
type ttlReader interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// memTTL copies the remaining remote TTL so an L1 entry never outlives its
// remote copy. Remotes that cannot report it get fallbackMemTTL.
func (lc *LayeredCache) memTTL(ctx context.Context, key string) time.Duration {
	if r, ok := lc.remote.(ttlReader); ok {
		if ttl, err := r.TTL(ctx, key); err == nil && ttl > 0 {
			return ttl
		}
	}
	return fallbackMemTTL
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.mem.DeleteByPattern(ctx, pattern)
	return lc.remote.DeleteByPattern(ctx, pattern)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}
