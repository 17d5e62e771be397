// Package cache stores successful API response bodies so repeated reads of static game
// data skip the network.
//
// Three backends are available:
//   - local: in-process, using github.com/patrickmn/go-cache
//   - redis: shared between processes, using github.com/go-redis/redis/v8
//   - two_tier: a short-lived local L1 in front of Redis
//
// Usage:
//
//	c, err := cache.New(cache.Config{Type: cache.TypeLocal, TTL: 5 * time.Minute})
//	_ = c.Set(ctx, key, body, 0) // 0 uses the backend default TTL for local caches
//	body, found := c.Get(ctx, key)
package cache
