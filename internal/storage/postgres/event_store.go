package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const insertEventQuery = `
	INSERT INTO volume_events (
		session, event_time, big_volume_deadline, reversion_deadline,
		total_volume, bid_volume, ask_volume,
		close, sma, mean_level_up, mean_level_down
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10, $11
	)
`

// Insert adds a new event. Returns ErrDuplicateKey if (session, event_time) exists.
func (s *EventStore) Insert(ctx context.Context, session string, e *domain.VolumeEvent) error {
	_, err := s.pool.Exec(ctx, insertEventQuery,
		session, e.Timestamp, e.BigVolumeDeadline, e.ReversionDeadline,
		e.TotalVolume, e.BidVolume, e.AskVolume,
		e.Close, e.SMA, e.MeanLevelUp, e.MeanLevelDown,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert volume event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, session string, events []*domain.VolumeEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		_, err := tx.Exec(ctx, insertEventQuery,
			session, e.Timestamp, e.BigVolumeDeadline, e.ReversionDeadline,
			e.TotalVolume, e.BidVolume, e.AskVolume,
			e.Close, e.SMA, e.MeanLevelUp, e.MeanLevelDown,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert volume event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySession retrieves all events for a session, ordered by timestamp ASC.
func (s *EventStore) GetBySession(ctx context.Context, session string) ([]*domain.VolumeEvent, error) {
	query := `
		SELECT
			event_time, big_volume_deadline, reversion_deadline,
			total_volume, bid_volume, ask_volume,
			close, sma, mean_level_up, mean_level_down
		FROM volume_events
		WHERE session = $1
		ORDER BY event_time ASC
	`

	rows, err := s.pool.Query(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("get volume events by session: %w", err)
	}
	defer rows.Close()

	return scanVolumeEvents(rows)
}

// scanVolumeEvents scans multiple rows into a slice of VolumeEvent.
func scanVolumeEvents(rows pgx.Rows) ([]*domain.VolumeEvent, error) {
	var events []*domain.VolumeEvent

	for rows.Next() {
		var e domain.VolumeEvent

		err := rows.Scan(
			&e.Timestamp, &e.BigVolumeDeadline, &e.ReversionDeadline,
			&e.TotalVolume, &e.BidVolume, &e.AskVolume,
			&e.Close, &e.SMA, &e.MeanLevelUp, &e.MeanLevelDown,
		)
		if err != nil {
			return nil, fmt.Errorf("scan volume event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume event rows: %w", err)
	}

	return events, nil
}
