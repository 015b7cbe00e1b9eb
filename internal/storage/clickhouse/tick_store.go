package clickhouse

import (
	"context"
	"fmt"
	"time"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// TickStore implements storage.TickStore using ClickHouse. Ticks are an
// append-only stream; MergeTree does not enforce uniqueness and the store
// does not try to.
type TickStore struct {
	conn *Conn
}

// NewTickStore creates a new TickStore.
func NewTickStore(conn *Conn) *TickStore {
	return &TickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk adds multiple ticks. Fails the entire batch on any error.
func (s *TickStore) InsertBulk(ctx context.Context, session string, ticks []domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ticks (session, timestamp_ms, price, side, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tk := range ticks {
		err = batch.Append(
			session, uint64(tk.Timestamp.UnixMilli()),
			tk.Price, string(tk.Side), tk.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySession retrieves all ticks for a session, ordered by timestamp ASC.
func (s *TickStore) GetBySession(ctx context.Context, session string) ([]domain.Tick, error) {
	query := `
		SELECT timestamp_ms, price, side, volume
		FROM ticks
		WHERE session = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("get ticks by session: %w", err)
	}
	defer rows.Close()

	return scanTicks(rows)
}

// GetByTimeRange retrieves ticks for a session within [start, end] unix
// milliseconds, both bounds inclusive.
func (s *TickStore) GetByTimeRange(ctx context.Context, session string, start, end int64) ([]domain.Tick, error) {
	query := `
		SELECT timestamp_ms, price, side, volume
		FROM ticks
		WHERE session = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, session, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("get ticks by time range: %w", err)
	}
	defer rows.Close()

	return scanTicks(rows)
}

// scanTicks scans multiple rows.
func scanTicks(rows chRows) ([]domain.Tick, error) {
	var ticks []domain.Tick

	for rows.Next() {
		var (
			timestampMs uint64
			side        string
			tk          domain.Tick
		)

		if err := rows.Scan(&timestampMs, &tk.Price, &side, &tk.Volume); err != nil {
			return nil, fmt.Errorf("scan tick row: %w", err)
		}

		tk.Timestamp = time.UnixMilli(int64(timestampMs)).UTC()
		tk.Side = domain.NormalizeSide(side)
		ticks = append(ticks, tk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tick rows: %w", err)
	}

	return ticks, nil
}
