// Package metrics computes performance statistics over a completed trade
// ledger.
package metrics

import (
	"math"
	"sort"

	"volume-reversion-lab/internal/domain"
)

// Summary aggregates one ledger's performance. Point and cash figures are
// related by the instrument's point value; everything here is derived from
// the cash series.
type Summary struct {
	// Counts
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	// PnL
	TotalPnLPoints float64
	TotalPnLCash   float64
	GrossProfit    float64 // sum of winning trades' cash PnL
	GrossLoss      float64 // sum of losing trades' cash PnL, as a positive number
	ProfitFactor   float64 // GrossProfit / GrossLoss; 0 when no losses
	AveragePnL     float64
	BestTrade      float64
	WorstTrade     float64

	// Distribution
	PnLStddev float64 // sample stddev of per-trade cash PnL
	Sharpe    float64 // mean / stddev, zero risk-free rate, not annualized

	// Path-dependent, in ledger (ID) order
	MaxDrawdown          float64 // worst peak-to-trough of the equity curve
	RecoveryFactor       float64 // TotalPnLCash / MaxDrawdown; 0 when flat
	MaxConsecutiveLosses int
	EquityCurve          []float64 // cumulative cash PnL after each trade

	ByDirection  map[domain.Direction]Breakdown
	ByExitReason map[string]Breakdown
}

// Breakdown is the per-group slice of the summary.
type Breakdown struct {
	Trades  int
	Wins    int
	WinRate float64
	PnLCash float64
}

// Compute builds a Summary from a ledger. Order-dependent figures use
// ascending trade ID, which the simulation assigns in event order.
func Compute(trades []*domain.Trade) *Summary {
	s := &Summary{
		ByDirection:  make(map[domain.Direction]Breakdown),
		ByExitReason: make(map[string]Breakdown),
	}
	n := len(trades)
	if n == 0 {
		return s
	}

	ordered := make([]*domain.Trade, n)
	copy(ordered, trades)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	s.TotalTrades = n
	s.BestTrade = ordered[0].PnLCash
	s.WorstTrade = ordered[0].PnLCash
	s.EquityCurve = make([]float64, n)

	var cumulative, peak float64
	streak := 0
	for i, t := range ordered {
		s.TotalPnLPoints += t.PnLPoints
		s.TotalPnLCash += t.PnLCash

		if t.PnLCash > 0 {
			s.Wins++
			s.GrossProfit += t.PnLCash
			streak = 0
		} else {
			s.Losses++
			s.GrossLoss += -t.PnLCash
			streak++
			if streak > s.MaxConsecutiveLosses {
				s.MaxConsecutiveLosses = streak
			}
		}
		if t.PnLCash > s.BestTrade {
			s.BestTrade = t.PnLCash
		}
		if t.PnLCash < s.WorstTrade {
			s.WorstTrade = t.PnLCash
		}

		cumulative += t.PnLCash
		s.EquityCurve[i] = cumulative
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}

		bumpBreakdown(s.ByDirection, t.Direction, t)
		bumpBreakdown(s.ByExitReason, t.ExitReason, t)
	}

	s.WinRate = float64(s.Wins) / float64(n)
	s.AveragePnL = s.TotalPnLCash / float64(n)
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	if s.MaxDrawdown > 0 {
		s.RecoveryFactor = s.TotalPnLCash / s.MaxDrawdown
	}

	s.PnLStddev = sampleStddev(ordered, s.AveragePnL)
	if s.PnLStddev > 0 {
		s.Sharpe = s.AveragePnL / s.PnLStddev
	}

	finalizeBreakdowns(s.ByDirection)
	finalizeBreakdowns(s.ByExitReason)
	return s
}

func bumpBreakdown[K comparable](m map[K]Breakdown, key K, t *domain.Trade) {
	b := m[key]
	b.Trades++
	if t.PnLCash > 0 {
		b.Wins++
	}
	b.PnLCash += t.PnLCash
	m[key] = b
}

func finalizeBreakdowns[K comparable](m map[K]Breakdown) {
	for key, b := range m {
		if b.Trades > 0 {
			b.WinRate = float64(b.Wins) / float64(b.Trades)
		}
		m[key] = b
	}
}

// sampleStddev is the n-1 standard deviation of per-trade cash PnL. Fewer
// than two trades yield zero.
func sampleStddev(trades []*domain.Trade, mean float64) float64 {
	n := len(trades)
	if n < 2 {
		return 0
	}
	var sumSq float64
	for _, t := range trades {
		d := t.PnLCash - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
