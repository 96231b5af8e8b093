package store

import (
	"context"
	"slices"
	"sync"

	"github.com/arcanum-sec/workbench/stix"
)

// MemoryStore is an in-memory Store. It is the default backend for the
// CLI and the backend every engine test runs against.
//
// Records are cloned on the way in and on the way out, so callers can
// never mutate stored state through a retrieved record.
type MemoryStore struct {
	mu sync.RWMutex

	// versions holds all versions per logical id, ordered oldest
	// version first.
	versions map[string][]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string][]*Record)}
}

// RetrieveAll implements Store.
func (s *MemoryStore) RetrieveAll(_ context.Context, id string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.versions[id]
	out := make([]*Record, 0, len(recs))
	for _, rec := range recs {
		clone, err := rec.Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// RetrieveLatest implements Store.
func (s *MemoryStore) RetrieveLatest(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.versions[id]
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[len(recs)-1].Clone()
}

// RetrieveVersion implements Store.
func (s *MemoryStore) RetrieveVersion(_ context.Context, id string, version stix.Timestamp) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.versions[id] {
		if rec.VersionKey().Equal(version) {
			return rec.Clone()
		}
	}
	return nil, ErrNotFound
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	if rec == nil || rec.Object == nil {
		return ErrNilRecord
	}
	clone, err := rec.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.versions[clone.Object.ID]
	key := clone.VersionKey()
	for _, existing := range recs {
		if existing.VersionKey().Equal(key) {
			return ErrDuplicateVersion
		}
	}
	// Insert in version order so the last element is always the latest.
	at, _ := slices.BinarySearchFunc(recs, clone, func(a, b *Record) int {
		return a.VersionKey().Compare(b.VersionKey().Time)
	})
	s.versions[clone.Object.ID] = slices.Insert(recs, at, clone)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, rec *Record) error {
	if rec == nil || rec.Object == nil {
		return ErrNilRecord
	}
	clone, err := rec.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.versions[clone.Object.ID]
	for i, existing := range recs {
		if existing.VersionKey().Equal(clone.VersionKey()) {
			recs[i] = clone
			return nil
		}
	}
	return ErrNotFound
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string, version stix.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.versions[id]
	for i, existing := range recs {
		if existing.VersionKey().Equal(version) {
			recs = slices.Delete(recs, i, i+1)
			if len(recs) == 0 {
				delete(s.versions, id)
			} else {
				s.versions[id] = recs
			}
			return nil
		}
	}
	return ErrNotFound
}

// ListLatest implements Store.
func (s *MemoryStore) ListLatest(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.versions))
	for _, recs := range s.versions {
		clone, err := recs[len(recs)-1].Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}
