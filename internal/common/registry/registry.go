// Package registry provides a generic, thread-safe registry for keyed values.
//
// Example usage:
//
//	type Config struct{ Game, APIType string }
//	func (c *Config) Key() string { return c.Game + "_" + c.APIType }
//
//	configs := registry.New[*Config]()
//	configs.Register(cfg)
//	cfg, err := configs.Get("wow_game_data")
package registry

import (
	"fmt"
	"sort"
	"sync"

	"blizzard-api/internal/common/errors"
)

// Entry defines the interface that all values must implement
// to be stored in the generic registry.
type Entry interface {
	// Key returns the identifier for this entry
	Key() string
}

// Registry provides a generic, thread-safe registry of entries.
type Registry[T Entry] struct {
	entries map[string]T
	mu      sync.RWMutex
}

// New creates a new empty registry for entries of type T.
func New[T Entry]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]T),
	}
}

// Register adds an entry under its key.
// If an entry with the same key already exists, it will be replaced.
func (r *Registry[T]) Register(entry T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Key()] = entry
}

// Get retrieves an entry by key.
// Returns a not found error if the key is not registered.
func (r *Registry[T]) Get(key string) (T, error) {
	r.mu.RLock()
	entry, exists := r.entries[key]
	r.mu.RUnlock()

	if !exists {
		var zero T
		return zero, errors.NotFoundError(fmt.Sprintf("registry entry %s", key))
	}

	return entry, nil
}

// Keys returns the registered keys in sorted order.
// The returned slice is a copy and safe to modify.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsRegistered checks if a key is registered in the registry.
func (r *Registry[T]) IsRegistered(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[key]
	return exists
}

// Count returns the number of registered entries.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes all registered entries from the registry.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]T)
}
