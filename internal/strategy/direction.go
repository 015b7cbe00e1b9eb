package strategy

import "volume-reversion-lab/internal/domain"

// direction folds the SELL/BUY asymmetry into a single sign so the entry,
// grid and exit logic is written once. factor is +1 for BUY and -1 for SELL:
// favorable price movement is always factor-positive, entry levels sit at
// close - factor*distance, and a stop sits at avg - factor*distance.
type direction struct {
	dir    domain.Direction
	factor float64
}

func directionFor(dir domain.Direction) direction {
	if dir == domain.DirectionSell {
		return direction{dir: dir, factor: -1}
	}
	return direction{dir: dir, factor: 1}
}

// reachedEntry reports whether the bar touched an entry level: the high for
// SELL (level above price), the low for BUY.
func (d direction) reachedEntry(f *domain.Frame, level float64) bool {
	if d.factor < 0 {
		return f.High >= level
	}
	return f.Low <= level
}

// reachedTarget reports whether the bar touched a favorable exit level.
func (d direction) reachedTarget(f *domain.Frame, level float64) bool {
	if d.factor < 0 {
		return f.Low <= level
	}
	return f.High >= level
}

// reachedStop reports whether the bar touched an adverse exit level.
func (d direction) reachedStop(f *domain.Frame, level float64) bool {
	if d.factor < 0 {
		return f.High >= level
	}
	return f.Low <= level
}

// favorableRef is the bar price used to advance trailing state: the low for
// SELL, the high for BUY.
func (d direction) favorableRef(f *domain.Frame) float64 {
	if d.factor < 0 {
		return f.Low
	}
	return f.High
}

// profit converts a price move into points in this direction's favor.
func (d direction) profit(avg, price float64) float64 {
	return d.factor * (price - avg)
}
