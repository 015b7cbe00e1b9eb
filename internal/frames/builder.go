// Package frames builds fixed-interval bars from a tick stream, pairing
// step-local OHLCV with rolling-profile metrics sampled at each boundary.
package frames

import (
	"math"
	"time"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/profile"
)

// Builder walks an ordered tick stream once and emits one Frame per fixed
// step. The profile is fed cumulatively through a single consumption cursor
// that only ever advances; every tick is consumed exactly once.
type Builder struct {
	step      time.Duration
	window    time.Duration
	tickSize  float64
	smaPeriod int
}

// NewBuilder creates a frame builder from session parameters.
func NewBuilder(session config.SessionConfig) *Builder {
	return &Builder{
		step:      session.FrameStep.Duration,
		window:    session.ProfileWindow.Duration,
		tickSize:  session.TickSize,
		smaPeriod: session.SMAPeriod,
	}
}

// Build produces the full frame sequence covering the session, from the
// first tick's timestamp through the last, stepping at the configured
// interval. Ticks must be in non-decreasing timestamp order.
func (b *Builder) Build(ticks []domain.Tick) []*domain.Frame {
	if len(ticks) == 0 {
		return nil
	}

	prof := profile.New(b.window, b.tickSize)
	sma := newSMAWindow(b.smaPeriod)

	start := ticks[0].Timestamp
	end := ticks[len(ticks)-1].Timestamp

	var frames []*domain.Frame
	cursor := 0
	var lastPrice float64
	var prevClose float64
	first := true

	for ts := start; !ts.After(end); ts = ts.Add(b.step) {
		batchStart := cursor
		for cursor < len(ticks) && !ticks[cursor].Timestamp.After(ts) {
			t := ticks[cursor]
			prof.Update(t.Timestamp, t.Price, t.Volume, t.Side)
			lastPrice = t.Price
			cursor++
		}
		prof.ExpireUntil(ts)

		f := b.buildFrame(ts, ticks[batchStart:cursor], lastPrice, prevClose, first, prof)
		f.SMA = sma.add(f.Close)
		frames = append(frames, f)

		prevClose = f.Close
		first = false
	}

	return frames
}

func (b *Builder) buildFrame(ts time.Time, batch []domain.Tick, lastPrice, prevClose float64, first bool, prof *profile.RollingProfile) *domain.Frame {
	f := &domain.Frame{Timestamp: ts}

	if len(batch) > 0 {
		f.Open = batch[0].Price
		f.High = batch[0].Price
		f.Low = batch[0].Price
		f.Close = batch[len(batch)-1].Price
		for _, t := range batch {
			if t.Price > f.High {
				f.High = t.Price
			}
			if t.Price < f.Low {
				f.Low = t.Price
			}
			if t.Side == domain.SideAsk {
				f.AskVolume += t.Volume
			} else {
				f.BidVolume += t.Volume
			}
		}
		f.TotalVolume = f.BidVolume + f.AskVolume
		if f.AskVolume > 0 {
			f.BidAskRatio = f.BidVolume / f.AskVolume
		}
		f.TickCount = len(batch)
	} else {
		// Flat bar: no trading occurred in this step.
		f.Open, f.High, f.Low, f.Close = lastPrice, lastPrice, lastPrice, lastPrice
	}

	if !first {
		f.PreviousClose = prevClose
		f.PriceChange = f.Close - prevClose
		if prevClose != 0 {
			f.PriceChangePct = f.PriceChange / prevClose * 100
		}
		if b.tickSize > 0 {
			f.LevelsMoved = int(math.Round(f.PriceChange / b.tickSize))
		}
	}

	fillProfileMetrics(f, prof)
	return f
}

// fillProfileMetrics reads the rolling window state at the frame boundary.
// The point of control is the level with the greatest combined volume; when
// several levels tie, the lowest price wins so the output is deterministic.
func fillProfileMetrics(f *domain.Frame, prof *profile.RollingProfile) {
	snap := prof.Snapshot()
	if len(snap) == 0 {
		return
	}

	f.PriceLevels = len(snap)
	firstLevel := true
	for price, lv := range snap {
		f.ProfileBidVolume += lv.Bid
		f.ProfileAskVolume += lv.Ask
		if firstLevel || price < f.MinPrice {
			f.MinPrice = price
		}
		if firstLevel || price > f.MaxPrice {
			f.MaxPrice = price
		}
		if lv.Total > f.POCVolume || (lv.Total == f.POCVolume && (firstLevel || price < f.POCPrice)) {
			f.POCVolume = lv.Total
			f.POCPrice = price
		}
		firstLevel = false
	}
	f.ProfileTotalVolume = f.ProfileBidVolume + f.ProfileAskVolume
	f.PriceRange = f.MaxPrice - f.MinPrice
	if f.ProfileAskVolume > 0 {
		f.ProfileBidAskRatio = f.ProfileBidVolume / f.ProfileAskVolume
	}
}

// smaWindow is a fixed-capacity rolling mean over frame closes. Until the
// window fills it averages over however many values have arrived.
type smaWindow struct {
	period int
	values []float64
	sum    float64
	next   int
}

func newSMAWindow(period int) *smaWindow {
	if period < 1 {
		period = 1
	}
	return &smaWindow{period: period}
}

func (w *smaWindow) add(v float64) float64 {
	if len(w.values) < w.period {
		w.values = append(w.values, v)
		w.sum += v
	} else {
		w.sum += v - w.values[w.next]
		w.values[w.next] = v
		w.next = (w.next + 1) % w.period
	}
	return w.sum / float64(len(w.values))
}
