package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func newTestMemory(t *testing.T, size int) *MemoryCache {
	t.Helper()
	mc := NewMemoryCache(MemoryConfig{MaxSize: size, CleanupInterval: time.Hour})
	t.Cleanup(func() { _ = mc.Close() })
	return mc
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(t, 10)

	require.NoError(t, mc.Set(ctx, "k", entry{Name: "a", Value: 1.5}, time.Minute))
	var got entry
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, entry{Name: "a", Value: 1.5}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "plain", time.Minute))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(t, 10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	now = now.Add(2 * time.Minute)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(t, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &v))
	assert.Equal(t, 3, v)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(t, 10)
	for _, k := range []string{"runs:all:50", "runs:ok:10", "run:1", "report"} {
		require.NoError(t, mc.Set(ctx, k, k, time.Minute))
	}

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("runs:")))
	assert.Equal(t, 2, mc.Len())
	require.NoError(t, mc.Delete(ctx, "report"))
	assert.Equal(t, 1, mc.Len())
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(t, 10)
	calls := 0
	load := func(context.Context) (entry, error) {
		calls++
		return entry{Name: "x"}, nil
	}

	v, hit, err := GetOrLoad(ctx, mc, "k", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "x", v.Name)

	v, hit, err = GetOrLoad(ctx, mc, "k", time.Minute, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "x", v.Name)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, _, err = GetOrLoad(ctx, mc, "other", time.Minute, func(context.Context) (entry, error) { return entry{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mc.Len())
}

func TestLayeredCacheFillsMemoryFromRemote(t *testing.T) {
	ctx := context.Background()
	remote := newTestMemory(t, 10)
	lc := NewLayeredCache(remote, 10)
	t.Cleanup(func() { _ = lc.mem.Close() })

	require.NoError(t, remote.Set(ctx, "k", entry{Name: "remote"}, time.Minute))
	var got entry
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "remote", got.Name)
	assert.Equal(t, 1, lc.mem.Len())

	require.NoError(t, lc.Set(ctx, "n", entry{Name: "both"}, time.Minute))
	require.NoError(t, remote.Get(ctx, "n", &got))
	assert.Equal(t, "both", got.Name)

	require.NoError(t, lc.DeleteByPattern(ctx, "*"))
	assert.Equal(t, 0, lc.mem.Len())
	assert.Equal(t, 0, remote.Len())
}

func TestLayeredCacheMemoryFollowsRemoteTTL(t *testing.T) {
	ctx := context.Background()
	remote := newTestMemory(t, 10)
	lc := NewLayeredCache(remote, 10)
	t.Cleanup(func() { _ = lc.mem.Close() })
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	remote.now = func() time.Time { return now }
	lc.mem.now = func() time.Time { return now }

	require.NoError(t, remote.Set(ctx, "report", entry{Name: "r"}, 30*time.Second))
	var got entry
	require.NoError(t, lc.Get(ctx, "report", &got))
	ttl, err := lc.mem.TTL(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)

	now = now.Add(31 * time.Second)
	assert.ErrorIs(t, lc.mem.Get(ctx, "report", &got), ErrCacheMiss)
	_, err = remote.TTL(ctx, "report")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "runs:all:ok:50", GenerateKeyWithParams("runs", "all", "ok", 50))
	assert.Len(t, HashKey("anything"), 40)
	rc := &RedisCache{prefix: "salescast:"}
	assert.Equal(t, []string{"salescast:a", "salescast:b"}, rc.wrapKeys("a", "b"))
}

func TestConfigDefaults(t *testing.T) {
	mc := NewMemoryCache(MemoryConfig{})
	defer mc.Close()
	assert.Equal(t, 1000, mc.maxSize)

	neg := NewMemoryCache(MemoryConfig{MaxSize: -5, CleanupInterval: time.Hour})
	defer neg.Close()
	assert.Equal(t, 1, neg.maxSize)

	rc := withDefaults(RedisConfig{Addr: "cache:6380", DB: 2})
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, "salescast:", rc.Prefix)
	assert.Equal(t, 5*time.Second, rc.PingTimeout)
}
