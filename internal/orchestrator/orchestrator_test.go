package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage/memory"
)

func tick(ms int64, price, volume float64, side domain.Side) domain.Tick {
	return domain.Tick{
		Timestamp: time.UnixMilli(ms).UTC(),
		Price:     price,
		Volume:    volume,
		Side:      side,
	}
}

func testOptions(cfg config.Config) (Options, *memory.TradeStore) {
	tradeStore := memory.NewTradeStore()
	return Options{
		Config:     cfg,
		TickStore:  memory.NewTickStore(),
		FrameStore: memory.NewFrameStore(),
		EventStore: memory.NewEventStore(),
		TradeStore: tradeStore,
	}, tradeStore
}

func TestRunFullPipeline(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.Date = "20240105"
	cfg.Detection.BigVolumeTrigger = 100
	require.NoError(t, cfg.Validate())

	// One big-volume frame at t=1s (volume 170), then price stretches up to
	// the sell level at 5010 and reverts through the take profit at 5005.
	ticks := []domain.Tick{
		tick(0, 5000, 10, domain.SideBid),
		tick(900, 5000, 80, domain.SideBid),
		tick(950, 5000, 90, domain.SideAsk),
		tick(2000, 5011, 1, domain.SideAsk),
		tick(3000, 5004, 1, domain.SideBid),
	}

	opts, tradeStore := testOptions(cfg)
	result, err := New(opts).Run(context.Background(), ticks)
	require.NoError(t, err)

	assert.Equal(t, "20240105", result.Session)
	assert.Equal(t, 5, result.TicksIngested)
	assert.Equal(t, 4, result.FramesBuilt)
	assert.Equal(t, 1, result.EventsDetected)
	assert.Equal(t, 1, result.TradesCreated)

	trades, err := tradeStore.GetBySession(context.Background(), "20240105")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, 1, trade.ID)
	assert.Equal(t, domain.DirectionSell, trade.Direction)
	assert.InDelta(t, 5010.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 5005.0, trade.ExitPrice, 1e-9)
	assert.Equal(t, domain.ExitReasonProfit, trade.ExitReason)
	assert.InDelta(t, 5.0, trade.PnLPoints, 1e-9)
	assert.InDelta(t, 100.0, trade.PnLCash, 1e-9)

	require.NotNil(t, result.Report)
	assert.Equal(t, 5, result.Report.TickCount)
	assert.Equal(t, 4, result.Report.FrameCount)
	assert.Equal(t, 1, result.Report.EventCount)
	assert.Equal(t, 1, result.Report.NoFill) // the BUY side never fills
	assert.Equal(t, 1, result.Report.Summary.TotalTrades)
}

func TestRunQuietTapeProducesEmptyReport(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.Date = "20240105"
	require.NoError(t, cfg.Validate())

	ticks := []domain.Tick{
		tick(0, 5000, 1, domain.SideBid),
		tick(1500, 5000.25, 2, domain.SideAsk),
		tick(2500, 5000.50, 1, domain.SideBid),
	}

	opts, tradeStore := testOptions(cfg)
	result, err := New(opts).Run(context.Background(), ticks)
	require.NoError(t, err)

	assert.Equal(t, 0, result.EventsDetected)
	assert.Equal(t, 0, result.TradesCreated)

	trades, err := tradeStore.GetBySession(context.Background(), "20240105")
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NotNil(t, result.Report)
	assert.Equal(t, 0, result.Report.Summary.TotalTrades)
}
