package subscription

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory subscription Store for single-instance
// deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, sub *Subscription) error {
	if sub == nil || sub.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = *sub
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		sub := sub
		out = append(out, &sub)
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	return nil
}

// SetLastRetrieved implements Store.
func (s *MemoryStore) SetLastRetrieved(_ context.Context, id string, retrieved time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return ErrNotFound
	}
	sub.LastRetrieved = retrieved
	s.subs[id] = sub
	return nil
}
