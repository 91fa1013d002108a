package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-hong-legacy/devscope/cache"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewMemoryCache(cache.WithClock(clock.now))

	require.NoError(t, c.Set(ctx, "token-a", "user-1", time.Minute))

	v, ok, err := c.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", v)

	clock.advance(59 * time.Second)
	_, ok, _ = c.Get(ctx, "token-a")
	assert.True(t, ok)

	clock.advance(time.Second)
	_, ok, _ = c.Get(ctx, "token-a")
	assert.False(t, ok, "entry expires exactly at its ttl")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", "v", time.Hour))
	require.NoError(t, c.Invalidate(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := cache.NewRedisCache(client, "identity:")

	_, ok, err := c.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "token-a", "user-1", 5*time.Minute))
	assert.True(t, mr.Exists("identity:token-a"))

	v, ok, err := c.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", v)

	mr.FastForward(5 * time.Minute)
	_, ok, err = c.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "token-b", "user-2", time.Minute))
	require.NoError(t, c.Invalidate(ctx, "token-b"))
	assert.False(t, mr.Exists("identity:token-b"))
}

func TestRedisCache_StoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, ok, err := cache.NewRedisCache(client, "").Get(context.Background(), "k")

	assert.Error(t, err)
	assert.False(t, ok)
}
