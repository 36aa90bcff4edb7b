package storage

import (
	"context"
	"sync"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// MemoryStore keeps decoded events in process memory, keyed the same way
// the Postgres store keys its rows. It backs the webhook server when no
// database is configured and stands in for Postgres in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[event.Kind]map[string]event.Decoded
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	events := make(map[event.Kind]map[string]event.Decoded, len(event.Kinds()))
	for _, k := range event.Kinds() {
		events[k] = make(map[string]event.Decoded)
	}
	return &MemoryStore{events: events}
}

// UpsertBatch stores every event in the batch, overwriting rows that share
// an id. It never fails.
func (s *MemoryStore) UpsertBatch(_ context.Context, batch *event.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range batch.Events() {
		s.events[e.Kind()][e.Common().ID] = e
	}

	return nil
}

// Get returns the stored event with the given kind and id.
func (s *MemoryStore) Get(kind event.Kind, id string) (event.Decoded, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[kind][id]
	return e, ok
}

// Count returns the number of stored events of one kind.
func (s *MemoryStore) Count(kind event.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[kind])
}
