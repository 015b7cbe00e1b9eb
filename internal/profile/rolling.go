// Package profile implements a rolling market profile: a sliding-window
// aggregation of per-price-level BID/ASK volume and trade counts over a
// tick stream.
package profile

import (
	"math"
	"sort"
	"time"

	"volume-reversion-lab/internal/domain"
)

// LevelVolumes is the aggregated state of one price level.
type LevelVolumes struct {
	Bid   float64
	Ask   float64
	Total float64
}

// LevelTrades lists the live contributing ticks of one price level per side.
type LevelTrades struct {
	Bid []domain.Tick
	Ask []domain.Tick
}

// LevelVolume pairs a price level with its combined volume.
type LevelVolume struct {
	Price  float64
	Volume float64
}

// level is the internal per-bucket aggregate. A level stays in the active
// set only while at least one of its fields is nonzero; the moment all four
// reach zero it is removed.
type level struct {
	price    float64
	bid      float64
	ask      float64
	bidCount int
	askCount int
}

func (l *level) empty() bool {
	return l.bid <= 0 && l.ask <= 0 && l.bidCount <= 0 && l.askCount <= 0
}

// RollingProfile aggregates ticks inside a trailing time window. Expiry is
// driven by the newest timestamp seen, not wall-clock time: each Update
// first evicts everything strictly older than the new timestamp minus the
// window, then inserts. Each tick is pushed once and popped at most once,
// so eviction is amortized O(1) per update.
//
// Levels are keyed by an integer bucket (round(price/tickSize)) so float
// equality never decides map membership; the raw price is materialized only
// at the boundary. A tick size of zero disables bucketing.
//
// Not safe for concurrent use; the pipeline feeds it from a single walker.
type RollingProfile struct {
	window   time.Duration
	tickSize float64

	// Live queue in arrival order. head marks the first live element; the
	// prefix is compacted away once it grows past half the slice.
	ticks []domain.Tick
	head  int

	latest time.Time
	levels map[int64]*level
}

// New creates an empty profile. A window of zero or negative duration is a
// valid degenerate configuration in which ticks expire as soon as a later
// timestamp arrives.
func New(window time.Duration, tickSize float64) *RollingProfile {
	return &RollingProfile{
		window:   window,
		tickSize: tickSize,
		levels:   make(map[int64]*level),
	}
}

// Bucket snaps a price to the nearest tick-size multiple. With no tick size
// configured the price passes through unchanged.
func (p *RollingProfile) Bucket(price float64) float64 {
	if p.tickSize <= 0 {
		return price
	}
	return float64(math.Round(price/p.tickSize)) * p.tickSize
}

// key maps a price to its integer bucket. Without a tick size the raw IEEE
// bits are used, which preserves identity (and ordering, for the positive
// prices this domain deals in).
func (p *RollingProfile) key(price float64) int64 {
	if p.tickSize <= 0 {
		return int64(math.Float64bits(price))
	}
	return int64(math.Round(price / p.tickSize))
}

// Update records one trade print. Eviction of expired ticks happens before
// the insert, both keyed to the new timestamp.
func (p *RollingProfile) Update(ts time.Time, price, volume float64, side domain.Side) {
	if side != domain.SideAsk {
		side = domain.SideBid
	}

	p.latest = ts
	p.expire(ts)

	bucketed := p.Bucket(price)
	tick := domain.Tick{Timestamp: ts, Price: bucketed, Side: side, Volume: volume}
	p.ticks = append(p.ticks, tick)

	k := p.key(bucketed)
	lvl, ok := p.levels[k]
	if !ok {
		lvl = &level{price: bucketed}
		p.levels[k] = lvl
	}
	if side == domain.SideAsk {
		lvl.ask += volume
		lvl.askCount++
	} else {
		lvl.bid += volume
		lvl.bidCount++
	}
}

// ExpireUntil advances the window to ts without inserting a tick. Used at
// frame boundaries that fall between prints.
func (p *RollingProfile) ExpireUntil(ts time.Time) {
	if ts.After(p.latest) {
		p.latest = ts
	}
	p.expire(ts)
}

func (p *RollingProfile) expire(now time.Time) {
	cutoff := now.Add(-p.window)
	for p.head < len(p.ticks) && p.ticks[p.head].Timestamp.Before(cutoff) {
		old := p.ticks[p.head]
		p.head++

		k := p.key(old.Price)
		lvl, ok := p.levels[k]
		if !ok {
			continue
		}
		if old.Side == domain.SideAsk {
			lvl.ask -= old.Volume
			lvl.askCount--
		} else {
			lvl.bid -= old.Volume
			lvl.bidCount--
		}
		if lvl.empty() {
			delete(p.levels, k)
		}
	}

	// Reclaim the evicted prefix once it dominates the slice.
	if p.head > 0 && p.head*2 >= len(p.ticks) {
		p.ticks = append(p.ticks[:0:0], p.ticks[p.head:]...)
		p.head = 0
	}
}

// Snapshot returns price level → volumes for every level with live volume
// on either side, evaluated at the latest timestamp seen.
func (p *RollingProfile) Snapshot() map[float64]LevelVolumes {
	out := make(map[float64]LevelVolumes, len(p.levels))
	for _, lvl := range p.levels {
		if lvl.bid > 0 || lvl.ask > 0 {
			out[lvl.price] = LevelVolumes{Bid: lvl.bid, Ask: lvl.ask, Total: lvl.bid + lvl.ask}
		}
	}
	return out
}

// SnapshotTrades returns the live contributing ticks per level and side.
// The lists are recomputed from the live queue on demand rather than kept
// as a parallel structure, so they can never drift from the aggregates.
func (p *RollingProfile) SnapshotTrades() map[float64]LevelTrades {
	out := make(map[float64]LevelTrades, len(p.levels))
	for _, t := range p.ticks[p.head:] {
		lt := out[t.Price]
		if t.Side == domain.SideAsk {
			lt.Ask = append(lt.Ask, t)
		} else {
			lt.Bid = append(lt.Bid, t)
		}
		out[t.Price] = lt
	}
	return out
}

// LevelAt returns the volumes at one price level, or false if the level has
// no live presence.
func (p *RollingProfile) LevelAt(price float64) (LevelVolumes, bool) {
	lvl, ok := p.levels[p.key(p.Bucket(price))]
	if !ok {
		return LevelVolumes{}, false
	}
	return LevelVolumes{Bid: lvl.bid, Ask: lvl.ask, Total: lvl.bid + lvl.ask}, true
}

// VolumeAt returns the live volume at a price for one side.
func (p *RollingProfile) VolumeAt(price float64, side domain.Side) float64 {
	lvl, ok := p.levels[p.key(p.Bucket(price))]
	if !ok {
		return 0
	}
	if side == domain.SideAsk {
		return lvl.ask
	}
	return lvl.bid
}

// TradeCount returns the live trade count at a price, both sides combined.
func (p *RollingProfile) TradeCount(price float64) int {
	lvl, ok := p.levels[p.key(p.Bucket(price))]
	if !ok {
		return 0
	}
	return lvl.bidCount + lvl.askCount
}

// SideTradeCount returns the live trade count at a price for one side.
func (p *RollingProfile) SideTradeCount(price float64, side domain.Side) int {
	lvl, ok := p.levels[p.key(p.Bucket(price))]
	if !ok {
		return 0
	}
	if side == domain.SideAsk {
		return lvl.askCount
	}
	return lvl.bidCount
}

// MinBid returns the lowest price level with live BID volume.
func (p *RollingProfile) MinBid() (price, volume float64, ok bool) {
	for _, lvl := range p.levels {
		if lvl.bid <= 0 {
			continue
		}
		if !ok || lvl.price < price {
			price, volume, ok = lvl.price, lvl.bid, true
		}
	}
	return price, volume, ok
}

// MaxAsk returns the highest price level with live ASK volume.
func (p *RollingProfile) MaxAsk() (price, volume float64, ok bool) {
	for _, lvl := range p.levels {
		if lvl.ask <= 0 {
			continue
		}
		if !ok || lvl.price > price {
			price, volume, ok = lvl.price, lvl.ask, true
		}
	}
	return price, volume, ok
}

// TopLevels returns up to n levels ordered by combined volume descending.
// Equal volumes order by ascending price so the output is deterministic.
func (p *RollingProfile) TopLevels(n int) []LevelVolume {
	out := make([]LevelVolume, 0, len(p.levels))
	for _, lvl := range p.levels {
		out = append(out, LevelVolume{Price: lvl.price, Volume: lvl.bid + lvl.ask})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Price < out[j].Price
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// LiveTicks reports how many ticks are currently inside the window.
func (p *RollingProfile) LiveTicks() int {
	return len(p.ticks) - p.head
}

// Latest returns the newest timestamp the profile has seen.
func (p *RollingProfile) Latest() time.Time {
	return p.latest
}
