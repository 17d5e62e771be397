package ratelimit

import (
	"fmt"
)

// BackendType defines the rate limiter backend
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendRedis BackendType = "redis"
)

// Config represents rate limiter configuration
type Config struct {
	Enabled           bool        `json:"enabled" yaml:"enabled"`
	RequestsPerSecond float64     `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int         `json:"burst_size" yaml:"burst_size"`
	Type              BackendType `json:"type" yaml:"type"`
	// Key names the shared window for the redis backend. It should identify the credential.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

// DefaultConfig returns Battle.net's documented per-client rate of 100 requests per second.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerSecond: 100,
		BurstSize:         100,
		Type:              BackendLocal,
	}
}

// Validate fills defaults and rejects unusable settings
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.BurstSize <= 0 {
		c.BurstSize = int(c.RequestsPerSecond)
		if c.BurstSize < 1 {
			c.BurstSize = 1
		}
	}
	if c.Type == "" {
		c.Type = BackendLocal
	}
	switch c.Type {
	case BackendLocal:
	case BackendRedis:
		if c.Key == "" {
			c.Key = "global"
		}
	default:
		return fmt.Errorf("unsupported rate limiter backend type: %s", c.Type)
	}
	return nil
}
