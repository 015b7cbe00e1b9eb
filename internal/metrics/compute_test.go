package metrics

import (
	"math"
	"testing"

	"volume-reversion-lab/internal/domain"
)

func ledgerTrade(id int, dir domain.Direction, reason string, cash float64) *domain.Trade {
	return &domain.Trade{
		ID:         id,
		Direction:  dir,
		ExitReason: reason,
		PnLPoints:  cash / 20,
		PnLCash:    cash,
	}
}

func TestComputeEmptyLedger(t *testing.T) {
	s := Compute(nil)
	if s.TotalTrades != 0 || s.TotalPnLCash != 0 || s.WinRate != 0 {
		t.Errorf("empty ledger summary = %+v", s)
	}
	if len(s.EquityCurve) != 0 {
		t.Errorf("EquityCurve = %v, want empty", s.EquityCurve)
	}
}

func TestComputeCountsAndPnL(t *testing.T) {
	trades := []*domain.Trade{
		ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 100),
		ledgerTrade(2, domain.DirectionBuy, domain.ExitReasonStop, -180),
		ledgerTrade(3, domain.DirectionSell, domain.ExitReasonProfit, 80),
		ledgerTrade(4, domain.DirectionBuy, domain.ExitReasonProfit, 100),
	}
	s := Compute(trades)

	if s.TotalTrades != 4 || s.Wins != 3 || s.Losses != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/3/1", s.TotalTrades, s.Wins, s.Losses)
	}
	if s.WinRate != 0.75 {
		t.Errorf("WinRate = %v, want 0.75", s.WinRate)
	}
	if s.TotalPnLCash != 100 {
		t.Errorf("TotalPnLCash = %v, want 100", s.TotalPnLCash)
	}
	if s.TotalPnLPoints != 5 {
		t.Errorf("TotalPnLPoints = %v, want 5", s.TotalPnLPoints)
	}
	if s.GrossProfit != 280 || s.GrossLoss != 180 {
		t.Errorf("gross = %v/%v, want 280/180", s.GrossProfit, s.GrossLoss)
	}
	if want := 280.0 / 180.0; s.ProfitFactor != want {
		t.Errorf("ProfitFactor = %v, want %v", s.ProfitFactor, want)
	}
	if s.AveragePnL != 25 {
		t.Errorf("AveragePnL = %v, want 25", s.AveragePnL)
	}
	if s.BestTrade != 100 || s.WorstTrade != -180 {
		t.Errorf("best/worst = %v/%v, want 100/-180", s.BestTrade, s.WorstTrade)
	}
}

func TestComputeEquityCurveAndDrawdown(t *testing.T) {
	trades := []*domain.Trade{
		ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 100),
		ledgerTrade(2, domain.DirectionSell, domain.ExitReasonStop, -60),
		ledgerTrade(3, domain.DirectionSell, domain.ExitReasonStop, -80),
		ledgerTrade(4, domain.DirectionSell, domain.ExitReasonProfit, 200),
	}
	s := Compute(trades)

	wantCurve := []float64{100, 40, -40, 160}
	for i, want := range wantCurve {
		if s.EquityCurve[i] != want {
			t.Errorf("EquityCurve[%d] = %v, want %v", i, s.EquityCurve[i], want)
		}
	}
	if s.MaxDrawdown != 140 {
		t.Errorf("MaxDrawdown = %v, want 140 (peak 100 to trough -40)", s.MaxDrawdown)
	}
	if want := 160.0 / 140.0; s.RecoveryFactor != want {
		t.Errorf("RecoveryFactor = %v, want %v", s.RecoveryFactor, want)
	}
	if s.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses = %d, want 2", s.MaxConsecutiveLosses)
	}
}

func TestComputeOrdersByIDBeforePathMetrics(t *testing.T) {
	// Same trades as the drawdown test, supplied out of order.
	trades := []*domain.Trade{
		ledgerTrade(4, domain.DirectionSell, domain.ExitReasonProfit, 200),
		ledgerTrade(2, domain.DirectionSell, domain.ExitReasonStop, -60),
		ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 100),
		ledgerTrade(3, domain.DirectionSell, domain.ExitReasonStop, -80),
	}
	s := Compute(trades)

	if s.MaxDrawdown != 140 {
		t.Errorf("MaxDrawdown = %v, want 140 regardless of input order", s.MaxDrawdown)
	}
	if s.EquityCurve[0] != 100 {
		t.Errorf("EquityCurve[0] = %v, want trade 1 first", s.EquityCurve[0])
	}
}

func TestComputeBreakdowns(t *testing.T) {
	trades := []*domain.Trade{
		ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 100),
		ledgerTrade(2, domain.DirectionBuy, domain.ExitReasonStop, -180),
		ledgerTrade(3, domain.DirectionSell, domain.ExitReasonTrailingStop, 80),
	}
	s := Compute(trades)

	sell := s.ByDirection[domain.DirectionSell]
	if sell.Trades != 2 || sell.Wins != 2 || sell.PnLCash != 180 || sell.WinRate != 1 {
		t.Errorf("SELL breakdown = %+v", sell)
	}
	buy := s.ByDirection[domain.DirectionBuy]
	if buy.Trades != 1 || buy.Wins != 0 || buy.PnLCash != -180 {
		t.Errorf("BUY breakdown = %+v", buy)
	}

	if got := s.ByExitReason[domain.ExitReasonTrailingStop]; got.Trades != 1 || got.PnLCash != 80 {
		t.Errorf("trailing_stop breakdown = %+v", got)
	}
	if got := s.ByExitReason[domain.ExitReasonStop]; got.Trades != 1 {
		t.Errorf("stop breakdown = %+v", got)
	}
}

func TestComputeStddevAndSharpe(t *testing.T) {
	trades := []*domain.Trade{
		ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 10),
		ledgerTrade(2, domain.DirectionSell, domain.ExitReasonProfit, 30),
	}
	s := Compute(trades)

	// mean 20, sample stddev sqrt(((10-20)^2+(30-20)^2)/1) = sqrt(200)
	wantStddev := math.Sqrt(200)
	if math.Abs(s.PnLStddev-wantStddev) > 1e-12 {
		t.Errorf("PnLStddev = %v, want %v", s.PnLStddev, wantStddev)
	}
	if math.Abs(s.Sharpe-20/wantStddev) > 1e-12 {
		t.Errorf("Sharpe = %v, want %v", s.Sharpe, 20/wantStddev)
	}

	single := Compute([]*domain.Trade{ledgerTrade(1, domain.DirectionSell, domain.ExitReasonProfit, 10)})
	if single.PnLStddev != 0 || single.Sharpe != 0 {
		t.Errorf("single-trade stddev/Sharpe = %v/%v, want 0/0", single.PnLStddev, single.Sharpe)
	}
}
