package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		session, id, direction,
		event_time, event_close, event_sma,
		entry_time, entry_price, second_entry_time, second_entry_price, avg_entry_price,
		exit_time, exit_price, exit_reason,
		entry_sma, exit_sma, tp_price, sl_price,
		pnl_points, pnl_cash
	) VALUES (
		$1, $2, $3,
		$4, $5, $6,
		$7, $8, $9, $10, $11,
		$12, $13, $14,
		$15, $16, $17, $18,
		$19, $20
	)
`

const selectTradeColumns = `
	id, direction,
	event_time, event_close, event_sma,
	entry_time, entry_price, second_entry_time, second_entry_price, avg_entry_price,
	exit_time, exit_price, exit_reason,
	entry_sma, exit_sma, tp_price, sl_price,
	pnl_points, pnl_cash
`

// Insert adds a new trade. Returns ErrDuplicateKey if (session, id) exists.
func (s *TradeStore) Insert(ctx context.Context, session string, t *domain.Trade) error {
	if t.ID <= 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		session, t.ID, string(t.Direction),
		t.EventTime, t.EventClose, t.EventSMA,
		t.EntryTime, t.EntryPrice, t.SecondEntryTime, t.SecondEntryPrice, t.AvgEntryPrice,
		t.ExitTime, t.ExitPrice, t.ExitReason,
		t.EntrySMA, t.ExitSMA, t.TPPrice, t.SLPrice,
		t.PnLPoints, t.PnLCash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, session string, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t.ID <= 0 {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, insertTradeQuery,
			session, t.ID, string(t.Direction),
			t.EventTime, t.EventClose, t.EventSMA,
			t.EntryTime, t.EntryPrice, t.SecondEntryTime, t.SecondEntryPrice, t.AvgEntryPrice,
			t.ExitTime, t.ExitPrice, t.ExitReason,
			t.EntrySMA, t.ExitSMA, t.TPPrice, t.SLPrice,
			t.PnLPoints, t.PnLCash,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves one trade of a session. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, session string, id int) (*domain.Trade, error) {
	query := `
		SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE session = $1 AND id = $2
	`

	row := s.pool.QueryRow(ctx, query, session, id)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetBySession retrieves all trades for a session, ordered by ID ASC.
func (s *TradeStore) GetBySession(ctx context.Context, session string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE session = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("get trades by session: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByDirection retrieves a session's trades for one direction, ordered by ID ASC.
func (s *TradeStore) GetByDirection(ctx context.Context, session string, dir domain.Direction) ([]*domain.Trade, error) {
	query := `
		SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE session = $1 AND direction = $2
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, session, string(dir))
	if err != nil {
		return nil, fmt.Errorf("get trades by direction: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var direction string

	err := row.Scan(
		&t.ID, &direction,
		&t.EventTime, &t.EventClose, &t.EventSMA,
		&t.EntryTime, &t.EntryPrice, &t.SecondEntryTime, &t.SecondEntryPrice, &t.AvgEntryPrice,
		&t.ExitTime, &t.ExitPrice, &t.ExitReason,
		&t.EntrySMA, &t.ExitSMA, &t.TPPrice, &t.SLPrice,
		&t.PnLPoints, &t.PnLCash,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = domain.Direction(direction)
	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var direction string

		err := rows.Scan(
			&t.ID, &direction,
			&t.EventTime, &t.EventClose, &t.EventSMA,
			&t.EntryTime, &t.EntryPrice, &t.SecondEntryTime, &t.SecondEntryPrice, &t.AvgEntryPrice,
			&t.ExitTime, &t.ExitPrice, &t.ExitReason,
			&t.EntrySMA, &t.ExitSMA, &t.TPPrice, &t.SLPrice,
			&t.PnLPoints, &t.PnLCash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Direction = domain.Direction(direction)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
