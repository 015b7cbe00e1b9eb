package reporting

import (
	"context"
	"time"

	"volume-reversion-lab/internal/metrics"
	"volume-reversion-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	tradeStore storage.TradeStore
	eventStore storage.EventStore
	frameStore storage.FrameStore
	now        func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator. The event and frame stores are
// optional; without them the corresponding pipeline counts stay zero.
func NewGenerator(tradeStore storage.TradeStore, eventStore storage.EventStore, frameStore storage.FrameStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		eventStore: eventStore,
		frameStore: frameStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a session's stored ledger and builds its report.
func (g *Generator) Generate(ctx context.Context, session string) (*Report, error) {
	trades, err := g.tradeStore.GetBySession(ctx, session)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		Session:     session,
		Trades:      trades,
		Summary:     metrics.Compute(trades),
	}

	if g.eventStore != nil {
		events, err := g.eventStore.GetBySession(ctx, session)
		if err != nil {
			return nil, err
		}
		r.EventCount = len(events)
	}
	if g.frameStore != nil {
		frames, err := g.frameStore.GetBySession(ctx, session)
		if err != nil {
			return nil, err
		}
		r.FrameCount = len(frames)
	}

	return r, nil
}
