package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests
type Limiter interface {
	// Wait blocks until a request may be sent or ctx is done
	Wait(ctx context.Context) error
	// TryAcquire reports whether a request may be sent now, consuming a slot if so
	TryAcquire() bool
	Stats() map[string]interface{}
}

// RedisInterface defines the minimal Redis interface needed for rate limiting
type RedisInterface interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// New creates a rate limiter for config. A disabled config yields a limiter that never waits.
func New(config Config, redisClient RedisInterface) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return noopLimiter{}, nil
	}

	switch config.Type {
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis client is required for distributed rate limiter")
		}
		return &distributedLimiter{config: config, redisClient: redisClient, key: "ratelimit:" + config.Key}, nil
	default:
		return &localLimiter{
			config:  config,
			limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.BurstSize),
		}, nil
	}
}

// localLimiter implements rate limiting using golang.org/x/time/rate
type localLimiter struct {
	config  Config
	limiter *rate.Limiter
}

func (l *localLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *localLimiter) TryAcquire() bool {
	return l.limiter.Allow()
}

func (l *localLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":                "local",
		"requests_per_second": l.config.RequestsPerSecond,
		"burst_size":          l.config.BurstSize,
		"available_tokens":    l.limiter.Tokens(),
	}
}

// distributedLimiter shares a one-second sliding window in Redis
type distributedLimiter struct {
	config      Config
	redisClient RedisInterface
	key         string
}

func (l *distributedLimiter) Wait(ctx context.Context) error {
	waitTime := time.Duration(float64(time.Second) / l.config.RequestsPerSecond)
	if waitTime < 10*time.Millisecond {
		waitTime = 10 * time.Millisecond
	}

	for {
		allowed, err := l.check(ctx)
		if err != nil || allowed {
			// A Redis outage must not stop API traffic; fall back to allowing the request.
			return nil
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *distributedLimiter) TryAcquire() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	allowed, err := l.check(ctx)
	return err != nil || allowed
}

func (l *distributedLimiter) check(ctx context.Context) (bool, error) {
	allowed, _, err := l.redisClient.CheckRateLimit(ctx, l.key, int(l.config.RequestsPerSecond), time.Second)
	return allowed, err
}

func (l *distributedLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":                "redis",
		"requests_per_second": l.config.RequestsPerSecond,
		"key":                 l.key,
	}
}

type noopLimiter struct{}

func (noopLimiter) Wait(ctx context.Context) error { return ctx.Err() }
func (noopLimiter) TryAcquire() bool               { return true }
func (noopLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{"type": "disabled"}
}
