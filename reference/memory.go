package reference

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory reference Store.
type MemoryStore struct {
	mu   sync.RWMutex
	refs map[string]Reference
}

// NewMemoryStore returns an empty in-memory reference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{refs: make(map[string]Reference)}
}

// Retrieve implements Store.
func (s *MemoryStore) Retrieve(_ context.Context, sourceName string) (*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.refs[sourceName]
	if !ok {
		return nil, ErrNotFound
	}
	return &ref, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, ref *Reference) error {
	if ref == nil || ref.SourceName == "" {
		return ErrMissingSourceName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[ref.SourceName] = *ref
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, ref *Reference) error {
	if ref == nil || ref.SourceName == "" {
		return ErrMissingSourceName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refs[ref.SourceName]; !ok {
		return ErrNotFound
	}
	s.refs[ref.SourceName] = *ref
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Reference, 0, len(s.refs))
	for _, ref := range s.refs {
		ref := ref
		out = append(out, &ref)
	}
	return out, nil
}
