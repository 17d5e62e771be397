// Package config loads client settings from environment variables.
//
// Environment Variables:
//
// Credentials:
//   - BLIZZARD_CLIENT_ID: API client id (required)
//   - BLIZZARD_CLIENT_SECRET: API client secret (required)
//
// Request defaults:
//   - BLIZZARD_REGION: default region (default: us)
//   - BLIZZARD_LOCALE: default locale (default: the region's default locale)
//   - BLIZZARD_TIMEOUT: HTTP timeout (default: 30s)
//
// Retries:
//   - BLIZZARD_MAX_ATTEMPTS: round trips per request (default: 3)
//   - BLIZZARD_RETRY_INITIAL_DELAY: first backoff delay (default: 500ms)
//   - BLIZZARD_RETRY_MAX_DELAY: backoff cap (default: 8s)
//
// Rate limiting:
//   - BLIZZARD_RATE_LIMIT_RPS: outbound requests per second, 0 disables (default: 0)
//   - BLIZZARD_RATE_LIMIT_BURST: burst size (default: 100)
//   - BLIZZARD_RATE_LIMIT_BACKEND: "local" or "redis" (default: local)
//
// Response cache:
//   - BLIZZARD_CACHE_TYPE: none, local, redis or two_tier (default: none)
//   - BLIZZARD_CACHE_TTL: entry lifetime (default: 5m)
//
// Redis (required by the redis cache and limiter backends):
//   - REDIS_ADDRESS: host:port (default: localhost:6379)
//   - REDIS_PASSWORD
//   - REDIS_DB: database number 0-15 (default: 0)
//
// Logging:
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"blizzard-api/internal/common/cache"
	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/ratelimit"
	"blizzard-api/internal/common/utils"
	"blizzard-api/internal/common/validation"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/redis"
)

// Config holds every setting the client reads from the environment.
type Config struct {
	ClientID     string `env:"BLIZZARD_CLIENT_ID" validate:"required"`
	ClientSecret string `env:"BLIZZARD_CLIENT_SECRET" validate:"required"`

	Region  string        `env:"BLIZZARD_REGION" validate:"required,region"`
	Locale  string        `env:"BLIZZARD_LOCALE" validate:"omitempty,locale"`
	Timeout time.Duration `env:"BLIZZARD_TIMEOUT" validate:"gt=0"`

	MaxAttempts       int           `env:"BLIZZARD_MAX_ATTEMPTS" validate:"gte=1,lte=10"`
	RetryInitialDelay time.Duration `env:"BLIZZARD_RETRY_INITIAL_DELAY" validate:"gte=0"`
	RetryMaxDelay     time.Duration `env:"BLIZZARD_RETRY_MAX_DELAY" validate:"gte=0"`

	RateLimitRPS     float64 `env:"BLIZZARD_RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst   int     `env:"BLIZZARD_RATE_LIMIT_BURST" validate:"gte=1"`
	RateLimitBackend string  `env:"BLIZZARD_RATE_LIMIT_BACKEND" validate:"oneof=local redis"`

	CacheType string        `env:"BLIZZARD_CACHE_TYPE" validate:"oneof=none local redis two_tier"`
	CacheTTL  time.Duration `env:"BLIZZARD_CACHE_TTL" validate:"gt=0"`

	RedisAddress  string `env:"REDIS_ADDRESS" validate:"omitempty,hostname_port"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" validate:"gte=0,lte=15"`

	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`

	// parseErrors collects values that could not be parsed; Validate reports them.
	parseErrors []string
}

// Load reads the environment. Unparseable values keep their default and are reported
// by Validate.
func Load() *Config {
	c := &Config{
		ClientID:     getEnv("BLIZZARD_CLIENT_ID", ""),
		ClientSecret: getEnv("BLIZZARD_CLIENT_SECRET", ""),

		Region: strings.ToLower(getEnv("BLIZZARD_REGION", "us")),
		Locale: getEnv("BLIZZARD_LOCALE", ""),

		RateLimitBackend: strings.ToLower(getEnv("BLIZZARD_RATE_LIMIT_BACKEND", "local")),
		CacheType:        strings.ToLower(getEnv("BLIZZARD_CACHE_TYPE", "none")),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	policy := executor.DefaultRetryPolicy()
	c.Timeout = c.getDurationEnv("BLIZZARD_TIMEOUT", 30*time.Second)
	c.MaxAttempts = c.getIntEnv("BLIZZARD_MAX_ATTEMPTS", policy.MaxAttempts)
	c.RetryInitialDelay = c.getDurationEnv("BLIZZARD_RETRY_INITIAL_DELAY", policy.InitialDelay)
	c.RetryMaxDelay = c.getDurationEnv("BLIZZARD_RETRY_MAX_DELAY", policy.MaxDelay)
	c.RateLimitRPS = c.getFloatEnv("BLIZZARD_RATE_LIMIT_RPS", 0)
	c.RateLimitBurst = c.getIntEnv("BLIZZARD_RATE_LIMIT_BURST", 100)
	c.CacheTTL = c.getDurationEnv("BLIZZARD_CACHE_TTL", 5*time.Minute)
	c.RedisDB = c.getIntEnv("REDIS_DB", 0)

	return c
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getIntEnv(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (c *Config) getFloatEnv(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a number, got %q", key, value))
		return defaultValue
	}
	return parsed
}

// getDurationEnv accepts whole seconds ("30"), Go durations ("1500ms") or days ("1d").
func (c *Config) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := utils.ParseDuration(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration such as 30s, got %q", key, value))
		return defaultValue
	}
	return parsed
}

// Validate checks field formats and the settings that depend on each other.
func (c *Config) Validate() error {
	if len(c.parseErrors) > 0 {
		return errors.ConfigError(strings.Join(c.parseErrors, "; ")).WithCode("invalid_environment")
	}
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.RetryMaxDelay > 0 && c.RetryInitialDelay > c.RetryMaxDelay {
		return errors.ValidationError("BLIZZARD_RETRY_INITIAL_DELAY must not exceed BLIZZARD_RETRY_MAX_DELAY")
	}
	if c.NeedsRedis() && c.RedisAddress == "" {
		return errors.ValidationError("REDIS_ADDRESS is required for the redis cache or rate limit backend")
	}
	return nil
}

// NeedsRedis reports whether the cache or the limiter uses Redis.
func (c *Config) NeedsRedis() bool {
	return cache.Type(c.CacheType).NeedsRedis() ||
		(c.RateLimitRPS > 0 && ratelimit.BackendType(c.RateLimitBackend) == ratelimit.BackendRedis)
}

// RetryPolicy returns the executor retry policy.
func (c *Config) RetryPolicy() executor.RetryPolicy {
	policy := executor.DefaultRetryPolicy()
	policy.MaxAttempts = c.MaxAttempts
	policy.InitialDelay = c.RetryInitialDelay
	policy.MaxDelay = c.RetryMaxDelay
	return policy
}

// RateLimitConfig returns the outbound limiter settings. key names the shared window of
// the redis backend.
func (c *Config) RateLimitConfig(key string) ratelimit.Config {
	return ratelimit.Config{
		Enabled:           c.RateLimitRPS > 0,
		RequestsPerSecond: c.RateLimitRPS,
		BurstSize:         c.RateLimitBurst,
		Type:              ratelimit.BackendType(c.RateLimitBackend),
		Key:               key,
	}
}

// CacheConfig returns the response cache settings without a Redis client attached.
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Type = cache.Type(c.CacheType)
	cfg.TTL = c.CacheTTL
	return cfg
}

// RedisConfig returns the Redis connection settings.
func (c *Config) RedisConfig() *redis.Config {
	return &redis.Config{
		Address:  c.RedisAddress,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
