// Package memory provides in-memory store implementations, used in tests
// and for single-shot backtests where persistence is not wanted.
package memory

import (
	"context"
	"sort"
	"sync"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// TickStore is an in-memory implementation of storage.TickStore.
type TickStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Tick // keyed by session
}

// NewTickStore creates a new in-memory tick store.
func NewTickStore() *TickStore {
	return &TickStore{
		data: make(map[string][]domain.Tick),
	}
}

// InsertBulk adds multiple ticks. Fails the entire batch on any error.
func (s *TickStore) InsertBulk(_ context.Context, session string, ticks []domain.Tick) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	if len(ticks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[session] = append(s.data[session], ticks...)
	sort.SliceStable(s.data[session], func(i, j int) bool {
		return s.data[session][i].Timestamp.Before(s.data[session][j].Timestamp)
	})
	return nil
}

// GetBySession retrieves all ticks for a session, ordered by timestamp ASC.
func (s *TickStore) GetBySession(_ context.Context, session string) ([]domain.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Tick, len(s.data[session]))
	copy(result, s.data[session])
	return result, nil
}

// GetByTimeRange retrieves ticks for a session within [start, end] (inclusive),
// with bounds in Unix milliseconds.
func (s *TickStore) GetByTimeRange(_ context.Context, session string, start, end int64) ([]domain.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Tick
	for _, t := range s.data[session] {
		ms := t.Timestamp.UnixMilli()
		if ms >= start && ms <= end {
			result = append(result, t)
		}
	}
	return result, nil
}

var _ storage.TickStore = (*TickStore)(nil)
