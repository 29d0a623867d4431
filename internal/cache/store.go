package cache

import (
	"context"
	"fmt"
	"sync"

	"profilemeister/internal/util"
)

// Store is the response cache contract. Implementations must be safe for
// concurrent use: distinct sections and stages never share a key, but the
// store itself is shared by every section pipeline.
type Store interface {
	// Get returns the cached text for key, with ok=false on a miss.
	Get(ctx context.Context, key string) (text string, ok bool, err error)
	// Put stores text under key. Keys are content-addressed: writing a
	// different text under an existing key is a bug in the caller and must
	// surface as a collision error, never as a silent overwrite. Re-writing
	// identical content is a no-op.
	Put(ctx context.Context, key, text string) error
}

// MemoryStore is the in-process implementation used by tests and mock runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.entries[key]
	return text, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok {
		if existing == text {
			return nil
		}
		return fmt.Errorf("%w: key %s", util.ErrCacheCollision, key)
	}
	s.entries[key] = text
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
