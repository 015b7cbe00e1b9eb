package clickhouse

import (
	"context"
	"fmt"
	"time"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

// FrameStore implements storage.FrameStore using ClickHouse. Frames are an
// append-only stream, one row per step boundary.
type FrameStore struct {
	conn *Conn
}

// NewFrameStore creates a new FrameStore.
func NewFrameStore(conn *Conn) *FrameStore {
	return &FrameStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FrameStore = (*FrameStore)(nil)

const selectFrameColumns = `
	timestamp_ms,
	open, high, low, close, previous_close,
	price_change, price_change_pct, levels_moved,
	bid_volume, ask_volume, total_volume, bid_ask_ratio, tick_count,
	profile_bid_volume, profile_ask_volume, profile_total_volume, profile_bid_ask_ratio,
	price_levels, price_range, min_price, max_price, poc_price, poc_volume,
	sma
`

// InsertBulk adds multiple frames. Fails the entire batch on any error.
func (s *FrameStore) InsertBulk(ctx context.Context, session string, frames []*domain.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO frames (
			session, timestamp_ms,
			open, high, low, close, previous_close,
			price_change, price_change_pct, levels_moved,
			bid_volume, ask_volume, total_volume, bid_ask_ratio, tick_count,
			profile_bid_volume, profile_ask_volume, profile_total_volume, profile_bid_ask_ratio,
			price_levels, price_range, min_price, max_price, poc_price, poc_volume,
			sma
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, f := range frames {
		err = batch.Append(
			session, uint64(f.Timestamp.UnixMilli()),
			f.Open, f.High, f.Low, f.Close, f.PreviousClose,
			f.PriceChange, f.PriceChangePct, int32(f.LevelsMoved),
			f.BidVolume, f.AskVolume, f.TotalVolume, f.BidAskRatio, uint32(f.TickCount),
			f.ProfileBidVolume, f.ProfileAskVolume, f.ProfileTotalVolume, f.ProfileBidAskRatio,
			uint32(f.PriceLevels), f.PriceRange, f.MinPrice, f.MaxPrice, f.POCPrice, f.POCVolume,
			f.SMA,
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

// GetBySession retrieves all frames for a session, ordered by timestamp ASC.
func (s *FrameStore) GetBySession(ctx context.Context, session string) ([]*domain.Frame, error) {
	query := `
		SELECT ` + selectFrameColumns + `
		FROM frames
		WHERE session = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("get frames by session: %w", err)
	}
	defer rows.Close()

	return scanFrames(rows)
}

// GetByTimeRange retrieves frames for a session within [start, end] unix
// milliseconds, both bounds inclusive.
func (s *FrameStore) GetByTimeRange(ctx context.Context, session string, start, end int64) ([]*domain.Frame, error) {
	query := `
		SELECT ` + selectFrameColumns + `
		FROM frames
		WHERE session = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, session, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("get frames by time range: %w", err)
	}
	defer rows.Close()

	return scanFrames(rows)
}

// scanFrames scans multiple rows.
func scanFrames(rows chRows) ([]*domain.Frame, error) {
	var frames []*domain.Frame

	for rows.Next() {
		var (
			f           domain.Frame
			timestampMs uint64
			levelsMoved int32
			tickCount   uint32
			priceLevels uint32
		)

		err := rows.Scan(
			&timestampMs,
			&f.Open, &f.High, &f.Low, &f.Close, &f.PreviousClose,
			&f.PriceChange, &f.PriceChangePct, &levelsMoved,
			&f.BidVolume, &f.AskVolume, &f.TotalVolume, &f.BidAskRatio, &tickCount,
			&f.ProfileBidVolume, &f.ProfileAskVolume, &f.ProfileTotalVolume, &f.ProfileBidAskRatio,
			&priceLevels, &f.PriceRange, &f.MinPrice, &f.MaxPrice, &f.POCPrice, &f.POCVolume,
			&f.SMA,
		)
		if err != nil {
			return nil, fmt.Errorf("scan frame row: %w", err)
		}

		f.Timestamp = time.UnixMilli(int64(timestampMs)).UTC()
		f.LevelsMoved = int(levelsMoved)
		f.TickCount = int(tickCount)
		f.PriceLevels = int(priceLevels)
		frames = append(frames, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frame rows: %w", err)
	}

	return frames, nil
}
