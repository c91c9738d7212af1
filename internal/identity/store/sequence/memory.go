package sequence

import (
	"context"
	"sync"
)

// InMemoryStore keeps counters in a map guarded by a mutex.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: make(map[string]int64)}
}

func (s *InMemoryStore) Next(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return s.counters[prefix], nil
}

// Seed sets the last issued value of a prefix, for imports of existing codes.
func (s *InMemoryStore) Seed(prefix string, last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last > s.counters[prefix] {
		s.counters[prefix] = last
	}
}
