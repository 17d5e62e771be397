package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_ReturnsValue(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 6, nil
	})

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	assert.True(t, f.Ready())
	v, err = f.Result()
	assert.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestGo_ReturnsError(t *testing.T) {
	want := errors.New("not found")
	f := Go(context.Background(), func(ctx context.Context) (string, error) {
		return "", want
	})

	<-f.Done()
	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, want)
}

func TestGo_RecoversPanic(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("boom")
	})

	_, err := f.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAwait_Cancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.False(t, f.Ready())
}

func TestGo_PropagatesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolved(t *testing.T) {
	f := Resolved("x", nil)
	assert.True(t, f.Ready())
	v, err := f.Result()
	assert.NoError(t, err)
	assert.Equal(t, "x", v)
}
