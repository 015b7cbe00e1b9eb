package memory

import (
	"context"
	"sort"
	"sync"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// FrameStore is an in-memory implementation of storage.FrameStore.
type FrameStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Frame // keyed by session
}

// NewFrameStore creates a new in-memory frame store.
func NewFrameStore() *FrameStore {
	return &FrameStore{
		data: make(map[string][]*domain.Frame),
	}
}

// InsertBulk adds multiple frames. Fails the entire batch on any error.
func (s *FrameStore) InsertBulk(_ context.Context, session string, frames []*domain.Frame) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	if len(frames) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		if f == nil {
			return storage.ErrInvalidInput
		}
		frameCopy := *f
		s.data[session] = append(s.data[session], &frameCopy)
	}
	sort.SliceStable(s.data[session], func(i, j int) bool {
		return s.data[session][i].Timestamp.Before(s.data[session][j].Timestamp)
	})
	return nil
}

// GetBySession retrieves all frames for a session, ordered by timestamp ASC.
func (s *FrameStore) GetBySession(_ context.Context, session string) ([]*domain.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Frame, 0, len(s.data[session]))
	for _, f := range s.data[session] {
		frameCopy := *f
		result = append(result, &frameCopy)
	}
	return result, nil
}

// GetByTimeRange retrieves frames for a session within [start, end] (inclusive),
// with bounds in Unix milliseconds.
func (s *FrameStore) GetByTimeRange(_ context.Context, session string, start, end int64) ([]*domain.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Frame
	for _, f := range s.data[session] {
		ms := f.Timestamp.UnixMilli()
		if ms >= start && ms <= end {
			frameCopy := *f
			result = append(result, &frameCopy)
		}
	}
	return result, nil
}

var _ storage.FrameStore = (*FrameStore)(nil)
