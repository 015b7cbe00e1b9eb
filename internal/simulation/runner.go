// Package simulation drives the per-session backtest: it replays every
// detected big-volume event through the strategy evaluator in both
// directions and assembles the resulting trade ledger.
package simulation

import (
	"context"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/storage"
	"volume-reversion-lab/internal/strategy"
)

// Result is the outcome of one session run.
type Result struct {
	Trades []*domain.Trade

	// Diagnostics: candidates that did not become trades.
	NoFill         int
	FilterRejected int
	Unresolved     int
}

// Runner executes trade simulations for a session's events.
type Runner struct {
	evaluator  *strategy.Evaluator
	tradeStore storage.TradeStore // optional; nil skips persistence
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Config     config.Config
	TradeStore storage.TradeStore
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	ev, err := strategy.NewEvaluator(opts.Config)
	if err != nil {
		return nil, err
	}
	return &Runner{
		evaluator:  ev,
		tradeStore: opts.TradeStore,
	}, nil
}

// Run replays events against frames and returns the completed ledger.
// Events are processed in order; for each event the SELL candidate is
// evaluated before the BUY candidate, so the ledger preserves event order
// with SELL first on a shared event. IDs are assigned sequentially from 1
// once the full ledger is known, then the ledger is persisted when a trade
// store is configured.
func (r *Runner) Run(ctx context.Context, session string, events []*domain.VolumeEvent, frames []*domain.Frame) (*Result, error) {
	res := &Result{}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, dir := range []domain.Direction{domain.DirectionSell, domain.DirectionBuy} {
			trade, outcome := r.evaluator.Evaluate(event, frames, dir)
			switch outcome {
			case strategy.OutcomeTraded:
				res.Trades = append(res.Trades, trade)
			case strategy.OutcomeNoFill:
				res.NoFill++
			case strategy.OutcomeFilterRejected:
				res.FilterRejected++
			case strategy.OutcomeUnresolved:
				res.Unresolved++
			}
		}
	}

	for i, t := range res.Trades {
		t.ID = i + 1
	}

	if r.tradeStore != nil && len(res.Trades) > 0 {
		if err := r.tradeStore.InsertBulk(ctx, session, res.Trades); err != nil {
			return nil, err
		}
	}

	return res, nil
}
