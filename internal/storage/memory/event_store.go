package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeEvent // keyed by (session, timestamp)
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.VolumeEvent),
	}
}

// eventKey generates a unique key for an event.
func eventKey(session string, e *domain.VolumeEvent) string {
	return fmt.Sprintf("%s|%d", session, e.Timestamp.UnixNano())
}

// Insert adds a new event. Returns ErrDuplicateKey if (session, timestamp) exists.
func (s *EventStore) Insert(_ context.Context, session string, e *domain.VolumeEvent) error {
	if session == "" || e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey(session, e)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[key] = &eventCopy
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, session string, events []*domain.VolumeEvent) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		key := eventKey(session, e)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, e := range events {
		eventCopy := *e
		s.data[eventKey(session, e)] = &eventCopy
	}
	return nil
}

// GetBySession retrieves all events for a session, ordered by timestamp ASC.
func (s *EventStore) GetBySession(_ context.Context, session string) ([]*domain.VolumeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := session + "|"
	var result []*domain.VolumeEvent
	for key, e := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

var _ storage.EventStore = (*EventStore)(nil)
