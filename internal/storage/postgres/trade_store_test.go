package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
)

func sampleTrade(id int, dir domain.Direction) *domain.Trade {
	event := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)
	return &domain.Trade{
		ID:            id,
		Direction:     dir,
		EventTime:     event,
		EventClose:    5001.25,
		EventSMA:      4998.50,
		EntryTime:     event.Add(40 * time.Second),
		EntryPrice:    5011.25,
		AvgEntryPrice: 5011.25,
		ExitTime:      event.Add(2 * time.Minute),
		ExitPrice:     5006.25,
		ExitReason:    domain.ExitReasonProfit,
		EntrySMA:      4999.00,
		ExitSMA:       4999.75,
		TPPrice:       ptr(5006.25),
		SLPrice:       5020.25,
		PnLPoints:     5,
		PnLCash:       100,
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := sampleTrade(1, domain.DirectionSell)
	require.NoError(t, store.Insert(ctx, "20240105", trade))

	got, err := store.GetByID(ctx, "20240105", 1)
	require.NoError(t, err)

	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, trade.Direction, got.Direction)
	assert.True(t, trade.EventTime.Equal(got.EventTime))
	assert.True(t, trade.EntryTime.Equal(got.EntryTime))
	assert.True(t, trade.ExitTime.Equal(got.ExitTime))
	assert.InDelta(t, trade.EntryPrice, got.EntryPrice, 0.0001)
	assert.InDelta(t, trade.AvgEntryPrice, got.AvgEntryPrice, 0.0001)
	assert.InDelta(t, trade.ExitPrice, got.ExitPrice, 0.0001)
	assert.Equal(t, trade.ExitReason, got.ExitReason)
	require.NotNil(t, got.TPPrice)
	assert.InDelta(t, *trade.TPPrice, *got.TPPrice, 0.0001)
	assert.Nil(t, got.SecondEntryTime)
	assert.Nil(t, got.SecondEntryPrice)
	assert.InDelta(t, trade.SLPrice, got.SLPrice, 0.0001)
	assert.InDelta(t, trade.PnLPoints, got.PnLPoints, 0.0001)
	assert.InDelta(t, trade.PnLCash, got.PnLCash, 0.0001)
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)

	_, err := store.GetByID(context.Background(), "20240105", 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_OptionalFieldsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := sampleTrade(1, domain.DirectionBuy)
	secondTime := trade.EntryTime.Add(20 * time.Second)
	trade.SecondEntryTime = &secondTime
	trade.SecondEntryPrice = ptr(4981.25)
	trade.AvgEntryPrice = 4996.25
	trade.TPPrice = nil // full trailing disables the fixed target

	require.NoError(t, store.Insert(ctx, "20240105", trade))

	got, err := store.GetByID(ctx, "20240105", 1)
	require.NoError(t, err)

	require.NotNil(t, got.SecondEntryTime)
	assert.True(t, secondTime.Equal(*got.SecondEntryTime))
	require.NotNil(t, got.SecondEntryPrice)
	assert.InDelta(t, 4981.25, *got.SecondEntryPrice, 0.0001)
	assert.Nil(t, got.TPPrice)
	assert.True(t, got.HasGridEntry())
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := sampleTrade(1, domain.DirectionSell)
	require.NoError(t, store.Insert(ctx, "20240105", trade))

	err := store.Insert(ctx, "20240105", trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same ID under another session is a distinct key.
	require.NoError(t, store.Insert(ctx, "20240108", trade))
}

func TestTradeStore_InsertRejectsNonPositiveID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)

	trade := sampleTrade(0, domain.DirectionSell)
	err := store.Insert(context.Background(), "20240105", trade)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{
		sampleTrade(1, domain.DirectionSell),
		sampleTrade(2, domain.DirectionBuy),
		sampleTrade(1, domain.DirectionSell), // duplicate ID
	}

	err := store.InsertBulk(ctx, "20240105", trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySession(ctx, "20240105")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTradeStore_GetBySessionOrdersAndFilters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{
		sampleTrade(3, domain.DirectionBuy),
		sampleTrade(1, domain.DirectionSell),
		sampleTrade(2, domain.DirectionSell),
	}
	require.NoError(t, store.InsertBulk(ctx, "20240105", trades))
	require.NoError(t, store.Insert(ctx, "20240108", sampleTrade(1, domain.DirectionBuy)))

	all, err := store.GetBySession(ctx, "20240105")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, 3, all[2].ID)

	sells, err := store.GetByDirection(ctx, "20240105", domain.DirectionSell)
	require.NoError(t, err)
	require.Len(t, sells, 2)
	assert.Equal(t, 1, sells[0].ID)
	assert.Equal(t, 2, sells[1].ID)

	buys, err := store.GetByDirection(ctx, "20240105", domain.DirectionBuy)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, 3, buys[0].ID)
}
