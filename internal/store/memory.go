package store

import (
	"context"
	"sync"

	"github.com/nvandessel/lvlup/internal/models"
)

// InMemoryStatStore implements StatStore for testing and development.
// Snapshots are cloned on the way in and out.
type InMemoryStatStore struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot

	// SaveErr, when set, is returned by Save without storing anything.
	SaveErr error
	saves   int
}

// NewInMemoryStatStore creates an empty in-memory store.
func NewInMemoryStatStore() *InMemoryStatStore {
	return &InMemoryStatStore{}
}

// Load returns a copy of the stored snapshot or the default schema.
func (s *InMemoryStatStore) Load(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return models.DefaultSnapshot(), nil
	}
	return s.snapshot.Clone(), nil
}

// Save stores a copy of snapshot.
func (s *InMemoryStatStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

// Exists reports whether Save has been called successfully.
func (s *InMemoryStatStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil, nil
}

// Saves returns the number of successful saves.
func (s *InMemoryStatStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *InMemoryStatStore) Close() error {
	return nil
}
