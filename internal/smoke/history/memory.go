package history

import (
	"context"
	"sync"
)

// MemoryStore хранит исходы в памяти процесса.
type MemoryStore struct {
	mu   sync.RWMutex
	last map[string]Outcome
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]Outcome)}
}

func (s *MemoryStore) Last(_ context.Context, scenario string) (*Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.last[scenario]
	if !ok {
		return nil, nil
	}
	o.FailedSteps = append([]string(nil), o.FailedSteps...)
	return &o, nil
}

func (s *MemoryStore) Save(_ context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.FailedSteps = append([]string(nil), o.FailedSteps...)
	s.last[o.Scenario] = o
	return nil
}

func (s *MemoryStore) Close() error { return nil }
