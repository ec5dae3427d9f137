package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/yashrajoria/storefront-service/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type item struct {
	Name string `json:"name"`
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr, client := newClient(t)
	c := cache.NewRedisCache(client, time.Minute)
	ctx := context.Background()

	var got item
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), cache.ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "k", item{Name: "atlas"}))
	require.NoError(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, "atlas", got.Name)

	ttl := mr.TTL("k")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, time.Minute+time.Minute/5)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), cache.ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, client := newClient(t)
	c := cache.NewRedisCache(client, time.Second)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", item{Name: "x"}))
	mr.FastForward(2 * time.Second)

	var got item
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), cache.ErrCacheMiss)
}

func TestRedisLocker_Exclusive(t *testing.T) {
	_, client := newClient(t)
	l := cache.NewRedisLocker(client)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "lock:verify:ref1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "lock:verify:ref1", time.Minute)
	assert.ErrorIs(t, err, cache.ErrLockHeld)

	require.NoError(t, release(ctx))

	release2, err := l.Acquire(ctx, "lock:verify:ref1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}

func TestRedisLocker_ReleaseAfterExpiryKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	l := cache.NewRedisLocker(client)
	ctx := context.Background()

	staleRelease, err := l.Acquire(ctx, "lock:k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = l.Acquire(ctx, "lock:k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists("lock:k"))
}
