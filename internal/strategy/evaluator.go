// Package strategy implements the mean-reversion trade lifecycle: entry
// detection against a big-volume event's reversion levels, the optional
// pyramided second entry, and path-dependent exit resolution with fixed,
// trailing and hybrid stop policies. All touch resolution is first-touch
// wins in chronological bar order.
package strategy

import (
	"sort"
	"time"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
)

// Outcome classifies the evaluation of one candidate direction.
type Outcome int

// Outcome values.
const (
	// OutcomeNoFill: the entry level was never touched inside the
	// reversion window, or the window held no price data.
	OutcomeNoFill Outcome = iota
	// OutcomeFilterRejected: the trade was fully simulated but discarded
	// by the SMA direction filter or the time-of-day filter.
	OutcomeFilterRejected
	// OutcomeUnresolved: an entry filled but the data stream ended before
	// any exit condition fired. The candidate is dropped, not emitted.
	OutcomeUnresolved
	// OutcomeTraded: a completed trade was produced.
	OutcomeTraded
)

// Evaluator runs the per-event, per-direction candidate state machine.
// It is pure: the same event and frames always produce the same result.
type Evaluator struct {
	expand     float64
	tpPoints   float64
	slPoints   float64
	pointValue float64

	grid       bool
	gridExpand float64
	gridTP     float64
	gridSL     float64

	smaFilter bool
	todFilter bool
	todStart  config.Clock
	todEnd    config.Clock

	// The trailing variants are conditioned on the SMA filter; config
	// validation rejects enabling them without it.
	trailing     bool
	trailingDist float64
	cashTrail    bool
	cashActivate float64
	cashDist     float64
}

// NewEvaluator builds an evaluator from a validated configuration.
func NewEvaluator(cfg config.Config) (*Evaluator, error) {
	e := &Evaluator{
		expand:     cfg.Detection.ReversionExpand,
		tpPoints:   cfg.Trading.TPPoints,
		slPoints:   cfg.Trading.SLPoints,
		pointValue: cfg.Session.PointValue,

		grid:       cfg.Grid.Enabled,
		gridExpand: cfg.Grid.Expand,
		gridTP:     cfg.Grid.TPPoints,
		gridSL:     cfg.Grid.SLPoints,

		smaFilter: cfg.Filters.BySMA,
		todFilter: cfg.Filters.TimeOfDay,

		trailing:     cfg.Trading.TrailingStopEnabled && cfg.Filters.BySMA,
		trailingDist: cfg.Trading.TrailingStopDistance,
		cashActivate: cfg.Trading.CashTrailingActivation,
		cashDist:     cfg.Trading.CashTrailingDistance,
	}
	e.cashTrail = cfg.Trading.CashTrailingEnabled && cfg.Filters.BySMA && !e.trailing

	if e.todFilter {
		var err error
		if e.todStart, err = config.ParseClock(cfg.Filters.StartTradingTime); err != nil {
			return nil, err
		}
		if e.todEnd, err = config.ParseClock(cfg.Filters.EndTradingTime); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Evaluate runs one candidate direction for one event against the session's
// frame sequence (sorted by timestamp). The returned trade is nil unless
// the outcome is OutcomeTraded; trade IDs are left unset for the caller.
func (e *Evaluator) Evaluate(event *domain.VolumeEvent, frames []*domain.Frame, dir domain.Direction) (*domain.Trade, Outcome) {
	d := directionFor(dir)

	firstLevel := event.Close - d.factor*e.expand
	secondLevel := event.Close - d.factor*(e.expand+e.gridExpand)

	// Entry: first bar inside [event start, reversion deadline] whose
	// range reaches the first level; the fill is at the level itself.
	lo := searchFrameIndex(frames, event.Timestamp)
	entryIdx := -1
	for i := lo; i < len(frames) && !frames[i].Timestamp.After(event.ReversionDeadline); i++ {
		if d.reachedEntry(frames[i], firstLevel) {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return nil, OutcomeNoFill
	}

	entryTime := frames[entryIdx].Timestamp
	entryPrice := firstLevel
	entrySMA := frames[entryIdx].SMA

	// Filters are evaluated once entry fires, independent of the fill's
	// eventual outcome; a failing filter discards the trade post-hoc.
	passed := true
	if e.smaFilter {
		if dir == domain.DirectionSell {
			passed = event.Close < event.SMA
		} else {
			passed = event.Close > event.SMA
		}
	}
	if passed && e.todFilter {
		clock := config.ClockOf(entryTime)
		passed = clock >= e.todStart && clock <= e.todEnd
	}

	st := candidateState{
		avg:     entryPrice,
		slPrice: entryPrice - d.factor*e.slPoints,
	}
	firstTP := entryPrice + d.factor*e.tpPoints
	if !e.trailing {
		st.tpPrice = &firstTP
	}

	if e.grid {
		e.resolveGrid(&st, d, frames, entryIdx, event.ReversionDeadline, entryPrice, secondLevel, firstTP)
	}

	if !st.exited {
		e.setExitLevels(&st, d, event)
		e.resolveExit(&st, d, frames, entryTime)
	}

	if !st.exited {
		return nil, OutcomeUnresolved
	}
	if !passed {
		return nil, OutcomeFilterRejected
	}

	pnl := d.profit(st.avg, st.exitPrice)
	trade := &domain.Trade{
		Direction:        dir,
		EventTime:        event.Timestamp,
		EventClose:       event.Close,
		EventSMA:         event.SMA,
		EntryTime:        entryTime,
		EntryPrice:       entryPrice,
		SecondEntryTime:  st.secondTime,
		SecondEntryPrice: st.secondPrice,
		AvgEntryPrice:    st.avg,
		ExitTime:         st.exitTime,
		ExitPrice:        st.exitPrice,
		ExitReason:       st.exitReason,
		EntrySMA:         entrySMA,
		ExitSMA:          st.exitSMA,
		TPPrice:          st.tpPrice,
		SLPrice:          st.slPrice,
		PnLPoints:        pnl,
		PnLCash:          pnl * e.pointValue,
	}
	return trade, OutcomeTraded
}

// candidateState carries a candidate through grid and exit resolution.
type candidateState struct {
	avg         float64
	tpPrice     *float64
	slPrice     float64
	secondTime  *time.Time
	secondPrice *float64

	exited     bool
	exitTime   time.Time
	exitPrice  float64
	exitReason string
	exitSMA    float64
}

// resolveGrid scans bars after the first entry, up to the reversion
// deadline, for three mutually exclusive triggers in priority order: the
// first entry's fixed take-profit, its fixed stop, and the second entry
// level. Under the full trailing stop the fixed checks are skipped and only
// the second entry can trigger. If nothing triggers, the candidate proceeds
// with the first entry alone.
func (e *Evaluator) resolveGrid(st *candidateState, d direction, frames []*domain.Frame, entryIdx int, deadline time.Time, entryPrice, secondLevel, firstTP float64) {
	firstSL := entryPrice - d.factor*e.slPoints
	for i := entryIdx + 1; i < len(frames) && !frames[i].Timestamp.After(deadline); i++ {
		f := frames[i]
		switch {
		case !e.trailing && d.reachedTarget(f, firstTP):
			st.exited = true
			st.exitReason = domain.ExitReasonProfit
			st.exitTime = f.Timestamp
			st.exitPrice = firstTP
			st.exitSMA = f.SMA
			st.tpPrice = &firstTP
			st.slPrice = firstSL
			return
		case !e.trailing && d.reachedStop(f, firstSL):
			st.exited = true
			st.exitReason = domain.ExitReasonStop
			st.exitTime = f.Timestamp
			st.exitPrice = firstSL
			st.exitSMA = f.SMA
			st.tpPrice = &firstTP
			st.slPrice = firstSL
			return
		case d.reachedEntry(f, secondLevel):
			ts := f.Timestamp
			price := secondLevel
			st.secondTime = &ts
			st.secondPrice = &price
			st.avg = (entryPrice + price) / 2
			return
		}
	}
}

// setExitLevels fixes the take-profit and stop for exit resolution. With a
// filled second entry the grid distances apply and the stop anchors beyond
// the second entry level; otherwise the plain distances apply from the
// average entry. Under the full trailing stop no fixed target exists.
func (e *Evaluator) setExitLevels(st *candidateState, d direction, event *domain.VolumeEvent) {
	st.tpPrice = nil
	if st.secondPrice != nil {
		if !e.trailing {
			tp := st.avg + d.factor*e.gridTP
			st.tpPrice = &tp
		}
		st.slPrice = event.Close - d.factor*(e.expand+e.gridExpand+e.gridSL)
	} else {
		if !e.trailing {
			tp := st.avg + d.factor*e.tpPoints
			st.tpPrice = &tp
		}
		st.slPrice = st.avg - d.factor*e.slPoints
	}
}

// resolveExit walks bars strictly after the last fill with no horizon
// bound. Trailing state advances before the exit checks on each bar; the
// take-profit is checked before the stop, so a bar touching both resolves
// as profit (an optimistic intrabar-path assumption, kept deliberately).
func (e *Evaluator) resolveExit(st *candidateState, d direction, frames []*domain.Frame, entryTime time.Time) {
	searchStart := entryTime
	if st.secondTime != nil {
		searchStart = *st.secondTime
	}

	trail := trailStop{d: d, distance: e.trailingDist}
	cash := cashTrail{d: d, activation: e.cashActivate, distance: e.cashDist, initialSL: st.slPrice}

	start := searchFrameIndex(frames, searchStart.Add(time.Nanosecond))
	for i := start; i < len(frames); i++ {
		f := frames[i]
		ref := d.favorableRef(f)

		if e.trailing {
			trail.observe(ref, &st.slPrice)
		} else if e.cashTrail {
			cash.observe(ref, d.profit(st.avg, ref), &st.slPrice)
		}

		if st.tpPrice != nil && !e.trailing && d.reachedTarget(f, *st.tpPrice) {
			st.exited = true
			st.exitReason = domain.ExitReasonProfit
			st.exitTime = f.Timestamp
			st.exitPrice = *st.tpPrice
			st.exitSMA = f.SMA
			return
		}
		if d.reachedStop(f, st.slPrice) {
			switch {
			case e.trailing && trail.moved:
				st.exitReason = domain.ExitReasonTrailingStop
			case e.cashTrail && cash.moved:
				st.exitReason = domain.ExitReasonCashTrailing
			default:
				st.exitReason = domain.ExitReasonStop
			}
			st.exited = true
			st.exitTime = f.Timestamp
			st.exitPrice = st.slPrice
			st.exitSMA = f.SMA
			return
		}
	}
}

// searchFrameIndex returns the index of the first frame at or after ts.
func searchFrameIndex(frames []*domain.Frame, ts time.Time) int {
	return sort.Search(len(frames), func(i int) bool {
		return !frames[i].Timestamp.Before(ts)
	})
}
