package domain

import "time"

// Frame is one fixed-interval bar over the tick stream, enriched with
// rolling-profile metrics sampled at the frame boundary. The OHLCV fields
// cover only ticks inside this frame's step; the Profile* fields reflect the
// trailing profile window, which is configured independently.
// Frames are created in strict chronological order and never mutated.
type Frame struct {
	Timestamp time.Time

	// Step-local OHLC. A step with no ticks inherits the prior close as a
	// flat bar with zero volume.
	Open          float64
	High          float64
	Low           float64
	Close         float64
	PreviousClose float64

	PriceChange    float64
	PriceChangePct float64
	LevelsMoved    int // price change expressed in tick-size increments

	// Step-local volume.
	BidVolume   float64
	AskVolume   float64
	TotalVolume float64
	BidAskRatio float64
	TickCount   int

	// Rolling-profile metrics at the frame boundary.
	ProfileBidVolume   float64
	ProfileAskVolume   float64
	ProfileTotalVolume float64
	ProfileBidAskRatio float64
	PriceLevels        int
	PriceRange         float64
	MinPrice           float64
	MaxPrice           float64
	POCPrice           float64 // point of control: level with greatest combined volume
	POCVolume          float64

	// Trailing simple moving average of close, partial window at the start.
	SMA float64
}
