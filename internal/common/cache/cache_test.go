package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLocalCache(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	_, found := c.Get(ctx, "achievement/6")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "achievement/6", []byte(`{"id":6}`), 0))
	val, found := c.Get(ctx, "achievement/6")
	assert.True(t, found)
	assert.JSONEq(t, `{"id":6}`, string(val))
	assert.Equal(t, 1, c.ItemCount())

	require.NoError(t, c.Delete(ctx, "achievement/6"))
	_, found = c.Get(ctx, "achievement/6")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.ItemCount())
}

func TestLocalCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	client, mr := newRedis(t)
	c := NewRedisCache(client, "blizzard:")

	require.NoError(t, c.Set(ctx, "decor/80", []byte(`{"id":80}`), time.Minute))
	assert.True(t, mr.Exists("blizzard:decor/80"))

	val, found := c.Get(ctx, "decor/80")
	assert.True(t, found)
	assert.Equal(t, `{"id":80}`, string(val))

	mr.FastForward(2 * time.Minute)
	_, found = c.Get(ctx, "decor/80")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, mr.Set("other:c", "3"))
	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("blizzard:a"))
	assert.False(t, mr.Exists("blizzard:b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestTwoTierCache(t *testing.T) {
	ctx := context.Background()
	client, mr := newRedis(t)
	c := NewTwoTierCache(time.Minute, time.Minute, client, "blizzard:")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	assert.True(t, mr.Exists("blizzard:k"))

	// L1 still serves after Redis loses the key.
	mr.Del("blizzard:k")
	val, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, "v", string(val))

	// A value only in L2 is promoted to L1.
	require.NoError(t, mr.Set("blizzard:shared", "from-other-process"))
	val, found = c.Get(ctx, "shared")
	assert.True(t, found)
	assert.Equal(t, "from-other-process", string(val))
	mr.Del("blizzard:shared")
	_, found = c.Get(ctx, "shared")
	assert.True(t, found)

	require.NoError(t, c.Delete(ctx, "k"))
	_, found = c.Get(ctx, "k")
	assert.False(t, found)

	require.NoError(t, c.Clear(ctx))
	_, found = c.Get(ctx, "shared")
	assert.False(t, found)
}

func TestNew(t *testing.T) {
	client, _ := newRedis(t)

	c, err := New(Config{Type: TypeNone})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &LocalCache{}, c)

	c, err = New(Config{Type: TypeRedis, TTL: time.Minute, RedisClient: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)

	c, err = New(Config{Type: TypeTwoTier, TTL: time.Minute, RedisClient: client})
	require.NoError(t, err)
	assert.IsType(t, &TwoTierCache{}, c)

	_, err = New(Config{Type: TypeRedis})
	assert.Error(t, err)
	_, err = New(Config{Type: TypeTwoTier})
	assert.Error(t, err)
	_, err = New(Config{Type: "memcached"})
	assert.Error(t, err)

	assert.True(t, TypeTwoTier.NeedsRedis())
	assert.False(t, TypeLocal.NeedsRedis())
}
