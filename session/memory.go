package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the token in process memory. It is the substitute for a
// persistent backend in tests and for one-shot programs.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	ok    bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored token.
func (s *MemoryStore) Get(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.ok, nil
}

// Set replaces the stored token.
func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.ok = true
	s.mu.Unlock()
	return nil
}

// Clear empties the slot.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.ok = false
	s.mu.Unlock()
	return nil
}
