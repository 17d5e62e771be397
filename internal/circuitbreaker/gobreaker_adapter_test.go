package circuitbreaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxFailures:           2,
		Timeout:               50 * time.Millisecond,
		MaxConcurrentRequests: 1,
	}
}

func TestGoBreakerAdapter(t *testing.T) {
	logger := logging.NewNopLogger()

	t.Run("basic operation", func(t *testing.T) {
		cb := NewGoBreaker("api-us", testConfig(), logger)

		assert.Equal(t, StateClosed, cb.State())
		assert.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, "api-us", cb.Name())
	})

	t.Run("server errors open the circuit", func(t *testing.T) {
		cb := NewGoBreaker("api-eu", testConfig(), logger)

		for i := 0; i < 2; i++ {
			err := cb.Execute(context.Background(), func() error {
				return errors.ServerError(fmt.Sprintf("failure %d", i), nil)
			})
			assert.Error(t, err)
		}
		assert.Equal(t, StateOpen, cb.State())
		assert.True(t, cb.IsOpen())

		err := cb.Execute(context.Background(), func() error {
			t.Fatal("should not be called while open")
			return nil
		})
		require.Error(t, err)
		assert.True(t, IsOpenError(err))
		assert.True(t, errors.IsType(err, errors.ErrTypeServer))
		assert.Contains(t, err.Error(), "open")
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		cb := NewGoBreaker("api-kr", testConfig(), logger)

		for i := 0; i < 5; i++ {
			_ = cb.Execute(context.Background(), func() error {
				return errors.NotFoundError("achievement")
			})
			_ = cb.Execute(context.Background(), func() error {
				return errors.RateLimitError("slow down", time.Second)
			})
		}
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("plain errors count as failures", func(t *testing.T) {
		cb := NewGoBreaker("api-tw", testConfig(), logger)
		for i := 0; i < 2; i++ {
			_ = cb.Execute(context.Background(), func() error { return fmt.Errorf("dial tcp: refused") })
		}
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("half-open then closed after recovery", func(t *testing.T) {
		cb := NewGoBreaker("api-cn", testConfig(), logger)
		for i := 0; i < 2; i++ {
			_ = cb.Execute(context.Background(), func() error { return errors.ServerError("down", nil) })
		}
		require.Equal(t, StateOpen, cb.State())

		time.Sleep(80 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		assert.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("cancelled context skips the call", func(t *testing.T) {
		cb := NewGoBreaker("oauth-us", testConfig(), logger)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := cb.Execute(ctx, func() error { called = true; return nil })
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("reset closes the circuit", func(t *testing.T) {
		cb := NewGoBreaker("reset", testConfig(), logger)
		for i := 0; i < 2; i++ {
			_ = cb.Execute(context.Background(), func() error { return errors.ServerError("down", nil) })
		}
		require.True(t, cb.IsOpen())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, 0, cb.Stats().Failures)
	})

	t.Run("invalid config falls back to defaults", func(t *testing.T) {
		cb := NewGoBreaker("invalid", Config{}, logger)
		for i := 0; i < 4; i++ {
			_ = cb.Execute(context.Background(), func() error { return errors.ServerError("down", nil) })
		}
		assert.Equal(t, StateClosed, cb.State(), "default allows five failures")
	})
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, APIConfig.Validate())
	assert.NoError(t, OAuthConfig.Validate())
	assert.Error(t, Config{Timeout: time.Second, MaxConcurrentRequests: 1}.Validate())
	assert.Error(t, Config{MaxFailures: 1, MaxConcurrentRequests: 1}.Validate())
	assert.Error(t, Config{MaxFailures: 1, Timeout: time.Second}.Validate())
}

func TestGoBreakerManager(t *testing.T) {
	m := NewGoBreakerManager(testConfig(), logging.NewNopLogger())

	us := m.GetOrCreate("api-us")
	assert.Same(t, us, m.GetOrCreate("api-us"))
	eu := m.GetOrCreate("api-eu")

	for i := 0; i < 2; i++ {
		_ = eu.Execute(context.Background(), func() error { return errors.ServerError("down", nil) })
	}

	stats := m.AllStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "api-eu", stats[0].Name)
	assert.Equal(t, "open", stats[0].State)
	assert.Equal(t, "closed", stats[1].State)

	m.Reset()
	assert.False(t, eu.IsOpen())
}
