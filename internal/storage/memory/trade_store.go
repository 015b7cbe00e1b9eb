package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by (session, id)
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// tradeKey generates a unique key for a trade.
func tradeKey(session string, id int) string {
	return fmt.Sprintf("%s|%d", session, id)
}

// Insert adds a new trade. Returns ErrDuplicateKey if (session, id) exists.
func (s *TradeStore) Insert(_ context.Context, session string, t *domain.Trade) error {
	if session == "" || t == nil || t.ID <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tradeKey(session, t.ID)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	tradeCopy := *t
	s.data[key] = &tradeCopy
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, session string, trades []*domain.Trade) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID <= 0 {
			return storage.ErrInvalidInput
		}
		key := tradeKey(session, t.ID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		tradeCopy := *t
		s.data[tradeKey(session, t.ID)] = &tradeCopy
	}
	return nil
}

// GetBySession retrieves all trades for a session, ordered by ID ASC.
func (s *TradeStore) GetBySession(_ context.Context, session string) ([]*domain.Trade, error) {
	return s.filter(session, func(*domain.Trade) bool { return true })
}

// GetByDirection retrieves a session's trades for one direction, ordered by ID ASC.
func (s *TradeStore) GetByDirection(_ context.Context, session string, dir domain.Direction) ([]*domain.Trade, error) {
	return s.filter(session, func(t *domain.Trade) bool { return t.Direction == dir })
}

func (s *TradeStore) filter(session string, keep func(*domain.Trade) bool) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := session + "|"
	var result []*domain.Trade
	for key, t := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && keep(t) {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
