package storage

import (
	"context"

	"volume-reversion-lab/internal/domain"
)

// Stores are keyed by session: one trading day of one instrument,
// identified by its YYYYMMDD tag. All reads return records ordered by
// timestamp ASC.

// TickStore provides access to raw time-and-sales storage.
type TickStore interface {
	// InsertBulk adds multiple ticks. Fails the entire batch on any error.
	InsertBulk(ctx context.Context, session string, ticks []domain.Tick) error

	// GetBySession retrieves all ticks for a session, ordered by timestamp ASC.
	GetBySession(ctx context.Context, session string) ([]domain.Tick, error)

	// GetByTimeRange retrieves ticks for a session within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, session string, start, end int64) ([]domain.Tick, error)
}

// FrameStore provides access to enriched frame storage.
type FrameStore interface {
	// InsertBulk adds multiple frames. Fails the entire batch on any error.
	InsertBulk(ctx context.Context, session string, frames []*domain.Frame) error

	// GetBySession retrieves all frames for a session, ordered by timestamp ASC.
	GetBySession(ctx context.Context, session string) ([]*domain.Frame, error)

	// GetByTimeRange retrieves frames for a session within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, session string, start, end int64) ([]*domain.Frame, error)
}

// EventStore provides access to big-volume event storage.
type EventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if (session, timestamp) exists.
	Insert(ctx context.Context, session string, e *domain.VolumeEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, session string, events []*domain.VolumeEvent) error

	// GetBySession retrieves all events for a session, ordered by timestamp ASC.
	GetBySession(ctx context.Context, session string) ([]*domain.VolumeEvent, error)
}

// TradeStore provides access to the simulated trade ledger.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if (session, id) exists.
	Insert(ctx context.Context, session string, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, session string, trades []*domain.Trade) error

	// GetBySession retrieves all trades for a session, ordered by ID ASC.
	GetBySession(ctx context.Context, session string) ([]*domain.Trade, error)

	// GetByDirection retrieves a session's trades for one direction, ordered by ID ASC.
	GetByDirection(ctx context.Context, session string, dir domain.Direction) ([]*domain.Trade, error)
}
