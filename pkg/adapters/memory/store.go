package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
)

// Store implements ports.BlueprintStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*blueprint.Blueprint
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*blueprint.Blueprint),
	}
}

// Save stores a deep copy of bp.
func (s *Store) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	copied := bp.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return nil
}

// Load returns a copy so callers can't mutate stored blueprints by pointer.
func (s *Store) Load(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bp, ok := s.data[name]
	if !ok {
		return nil, domain.ErrBlueprintNotFound
	}
	return bp.Clone(), nil
}

// Delete removes a blueprint.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns stored names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
