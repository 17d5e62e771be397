package oauth2

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	token, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, token)

	original := &Token{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, "k", original))
	original.AccessToken = "mutated"

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AccessToken)

	loaded.AccessToken = "mutated"
	again, _ := store.Load(ctx, "k")
	assert.Equal(t, "abc", again.AccessToken)

	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save(ctx, "a", original))
	require.NoError(t, store.Save(ctx, "b", original))
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestToken_ValidAt(t *testing.T) {
	now := time.Now()
	token := &Token{AccessToken: "abc", ExpiresAt: now.Add(time.Minute)}

	assert.True(t, token.ValidAt(now, 30*time.Second))
	assert.False(t, token.ValidAt(now, 90*time.Second))
	assert.False(t, (&Token{ExpiresAt: now.Add(time.Hour)}).ValidAt(now, 0))

	var nilToken *Token
	assert.False(t, nilToken.ValidAt(now, 0))
}

func TestToken_ValidAtCapsMarginForShortLifetimes(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token := &Token{AccessToken: "abc", IssuedAt: issued, ExpiresAt: issued.Add(20 * time.Second)}

	assert.True(t, token.ValidAt(issued, 30*time.Second))
	assert.True(t, token.ValidAt(issued.Add(9*time.Second), 30*time.Second))
	assert.False(t, token.ValidAt(issued.Add(10*time.Second), 30*time.Second))
	assert.True(t, token.ValidAt(issued.Add(12*time.Second), 5*time.Second), "smaller margins are kept")

	expired := &Token{AccessToken: "abc", IssuedAt: issued, ExpiresAt: issued}
	assert.False(t, expired.ValidAt(issued, 30*time.Second))
}
