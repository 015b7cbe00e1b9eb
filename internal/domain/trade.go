package domain

import "time"

// Direction of a simulated trade.
type Direction string

// Direction constants.
const (
	DirectionSell Direction = "SELL"
	DirectionBuy  Direction = "BUY"
)

// Exit reason codes. TrailingStop and CashTrailing are only emitted when the
// corresponding mode was enabled and actually moved the stop at least once.
const (
	ExitReasonProfit       = "profit"
	ExitReasonStop         = "stop"
	ExitReasonTrailingStop = "trailing_stop"
	ExitReasonCashTrailing = "cash_trailing"
)

// Trade is one completed simulated trade. Append-only once finalized; it is
// never re-opened. IDs are assigned sequentially after a full run, in
// chronological ledger order.
type Trade struct {
	ID        int
	Direction Direction

	EventTime  time.Time // timestamp of the originating volume event
	EventClose float64
	EventSMA   float64

	EntryTime  time.Time
	EntryPrice float64

	// Second (grid) entry, present only when the grid mode filled it.
	SecondEntryTime  *time.Time
	SecondEntryPrice *float64

	AvgEntryPrice float64

	ExitTime   time.Time
	ExitPrice  float64
	ExitReason string

	EntrySMA float64
	ExitSMA  float64

	// TPPrice is nil when the full trailing stop disables the fixed target.
	TPPrice *float64
	SLPrice float64

	PnLPoints float64
	PnLCash   float64
}

// HasGridEntry reports whether the second grid entry filled.
func (t *Trade) HasGridEntry() bool {
	return t.SecondEntryPrice != nil
}
