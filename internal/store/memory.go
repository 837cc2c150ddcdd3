// Package store persists the root→relay thread mapping. The SQLite
// implementation survives restarts; the memory implementation matches the
// original at-most-once, lost-on-restart behavior and backs tests.
package store

import (
	"context"
	"sync"
	"time"

	"relaybot/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory RelayStore.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]domain.RelayMapping
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mappings: make(map[string]domain.RelayMapping)}
}

func (s *MemoryStore) Get(ctx context.Context, rootTS string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappings[rootTS].RelayTS, nil
}

func (s *MemoryStore) Put(ctx context.Context, rootTS, relayTS string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[rootTS] = domain.RelayMapping{
		RootTS:    rootTS,
		RelayTS:   relayTS,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for root, m := range s.mappings {
		if m.CreatedAt.Before(cutoff) {
			delete(s.mappings, root)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.mappings)), nil
}

func (s *MemoryStore) Close() error { return nil }
