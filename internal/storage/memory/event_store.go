package memory

import (
	"context"
	"sync"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.Mutex
	data map[string]*domain.CanonicalEvent // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.CanonicalEvent),
	}
}

// UpsertIdempotent inserts the event, reporting whether a new row was
// created. Existing rows are never mutated.
func (s *EventStore) UpsertIdempotent(_ context.Context, event *domain.CanonicalEvent) (bool, error) {
	if event == nil || event.EventID == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[event.EventID]; exists {
		return false, nil
	}

	copy := *event
	s.data[event.EventID] = &copy
	return true, nil
}

// Get retrieves an admitted event by id. Returns ErrNotFound if absent.
// Not part of storage.EventStore; used by tests to inspect state.
func (s *EventStore) Get(_ context.Context, eventID string) (*domain.CanonicalEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.data[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *event
	return &copy, nil
}

// Len reports the number of admitted events. Test hook.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

var _ storage.EventStore = (*EventStore)(nil)
