package subscription

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Load retrieves the record for a subscription id, or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, subscriptionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[subscriptionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Save overwrites the record keyed by its subscription id.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SubscriptionID] = *rec
	return nil
}

// FindByOwner scans for a record with the given owner identity.
func (s *MemoryStore) FindByOwner(_ context.Context, ownerIdentity string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.OwnerIdentity == ownerIdentity {
			out := rec
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes the record for a subscription id.
func (s *MemoryStore) Delete(_ context.Context, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subscriptionID)
	return nil
}
