package handoff

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	targets map[string]Target
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{targets: make(map[string]Target)}
}

func (s *MemoryStore) Publish(_ context.Context, t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[t.Strategy] = t
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, strategy string) (Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[strategy]
	if !ok {
		return Target{}, ErrNoTarget
	}
	return t, nil
}

var _ Store = (*MemoryStore)(nil)
