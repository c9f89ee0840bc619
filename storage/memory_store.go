package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/leeforge/gallery/errors"
)

// MemoryConfigStore is an in-memory ConfigStore used in tests and in
// deployments without a database. It also supports the administrative
// activate operation.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	records map[string]ProviderRecord
}

// NewMemoryConfigStore seeds a store with the given records.
func NewMemoryConfigStore(records ...ProviderRecord) *MemoryConfigStore {
	s := &MemoryConfigStore{records: make(map[string]ProviderRecord)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

// ActiveProvider returns the active record with the highest priority.
func (s *MemoryConfigStore) ActiveProvider(ctx context.Context) (ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []ProviderRecord
	for _, r := range s.records {
		if r.IsActive {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return ProviderRecord{}, errors.NewNotFound("active storage provider", "any")
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active[0], nil
}

// ProviderByID returns the record with the given id.
func (s *MemoryConfigStore) ProviderByID(ctx context.Context, id string) (ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return ProviderRecord{}, errors.NewNotFound("storage provider", id)
	}
	return r, nil
}

// List returns all records, highest priority first.
func (s *MemoryConfigStore) List(ctx context.Context) ([]ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProviderRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

// Activate marks the record active and deactivates all others. Callers must
// Reset the selector afterwards for the switch to take effect.
func (s *MemoryConfigStore) Activate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.NewNotFound("storage provider", id)
	}
	for key, r := range s.records {
		r.IsActive = key == id
		s.records[key] = r
	}
	return nil
}
