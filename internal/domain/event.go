package domain

import "time"

// VolumeEvent marks a frame whose traded volume exceeded the big-volume
// trigger. It carries the reversion levels and the two validity horizons
// used by the trade simulator. Immutable once created.
type VolumeEvent struct {
	Timestamp time.Time // the qualifying frame's timestamp

	// BigVolumeDeadline bounds the anomaly's overall validity window.
	// ReversionDeadline is the (typically much shorter) window within which
	// mean-reversion entries remain eligible.
	BigVolumeDeadline time.Time
	ReversionDeadline time.Time

	TotalVolume float64
	BidVolume   float64
	AskVolume   float64

	// Close and SMA of the qualifying frame, used by the direction filter.
	Close float64
	SMA   float64

	// Reversion targets: close ± expansion (extended when grid mode is on).
	MeanLevelUp   float64
	MeanLevelDown float64
}
