package domain

import "time"

// Side identifies which side of the book initiated a trade print.
type Side string

// Side constants.
const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// NormalizeSide maps an arbitrary side string to exactly BID or ASK.
// Anything that is not recognized as ASK is treated as BID.
func NormalizeSide(s string) Side {
	switch s {
	case "ASK", "ask", "Ask":
		return SideAsk
	default:
		return SideBid
	}
}

// Tick is a single executed trade print from time-and-sales data.
// Immutable once created; the data source emits ticks in non-decreasing
// timestamp order.
type Tick struct {
	Timestamp time.Time
	Price     float64
	Side      Side
	Volume    float64
}
