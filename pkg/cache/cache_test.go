package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "prices"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "MOW:IST:2026-02-15", []byte(`{"data":[]}`), time.Minute))

	got, err := c.Get(ctx, "MOW:IST:2026-02-15")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"data":[]}`), got)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("prices:k"))
}

func TestJSONHelpers(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type page struct {
		Count int `json:"count"`
	}
	require.NoError(t, SetJSON(ctx, c, "page", page{Count: 3}, time.Minute))

	var got page
	require.NoError(t, GetJSON(ctx, c, "page", &got))
	assert.Equal(t, 3, got.Count)

	assert.ErrorIs(t, GetJSON(ctx, c, "absent", &got), ErrCacheMiss)
}
