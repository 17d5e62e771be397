package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		assert.Equal(t, 10, client.config.PoolSize)
		assert.NoError(t, client.Health(context.Background()))
		assert.NotNil(t, client.Raw())
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := NewClient(&Config{Address: "127.0.0.1:1"})
		assert.Error(t, err)
	})
}

func TestCheckRateLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, count, err := client.CheckRateLimit(ctx, "ratelimit:abc", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
		assert.Equal(t, i, count)
	}

	allowed, count, err := client.CheckRateLimit(ctx, "ratelimit:abc", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 3, count)

	// Other keys are independent.
	allowed, _, err = client.CheckRateLimit(ctx, "ratelimit:other", 3, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("blizzard:k", "v"))

	require.NoError(t, client.Delete(context.Background(), "blizzard:k"))
	assert.False(t, mr.Exists("blizzard:k"))
}
