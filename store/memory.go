package store

import (
	"context"
	"sync"

	authware "github.com/authware/authware-go"
)

// MemoryStore is an in-memory TokenStore for tests and examples.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// compile-time check
var _ authware.TokenStore = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryWithToken creates a store pre-seeded with a credential.
func NewMemoryWithToken(token string) *MemoryStore {
	return &MemoryStore{token: token, set: true}
}

// Load returns the stored credential, or authware.ErrNoToken.
func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return "", authware.ErrNoToken
	}
	return s.token, nil
}

// Save replaces the stored credential.
func (s *MemoryStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.set = true
	s.mu.Unlock()
	return nil
}

// Clear removes the stored credential.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.set = false
	s.mu.Unlock()
	return nil
}
