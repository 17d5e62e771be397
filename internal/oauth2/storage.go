package oauth2

import (
	"context"
	"sync"
)

// TokenStore holds tokens for one Manager. Keys combine the credential identity and the region.
type TokenStore interface {
	// Load returns the token for key, or nil when none is stored.
	Load(ctx context.Context, key string) (*Token, error)
	Save(ctx context.Context, key string, token *Token) error
	Delete(ctx context.Context, key string) error
	// Clear removes every token.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps tokens in process memory. Reads of a stored token only take a read lock.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]*Token),
	}
}

func (s *MemoryTokenStore) Load(ctx context.Context, key string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[key]
	if !ok {
		return nil, nil
	}
	// Return a copy so callers cannot mutate the cached entry.
	copied := *token
	return &copied, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, key string, token *Token) error {
	copied := *token

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = &copied
	return nil
}

func (s *MemoryTokenStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]*Token)
	return nil
}

// Len returns the number of stored tokens.
func (s *MemoryTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
