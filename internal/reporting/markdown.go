package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"volume-reversion-lab/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Backtest Report - Session %s\n\n", r.Session))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Pipeline\n\n")
	sb.WriteString("| Stage | Count |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", r.TickCount))
	sb.WriteString(fmt.Sprintf("| Frames | %d |\n", r.FrameCount))
	sb.WriteString(fmt.Sprintf("| Big-volume events | %d |\n", r.EventCount))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", len(r.Trades)))
	sb.WriteString(fmt.Sprintf("| Candidates without fill | %d |\n", r.NoFill))
	sb.WriteString(fmt.Sprintf("| Filter-rejected | %d |\n", r.FilterRejected))
	sb.WriteString(fmt.Sprintf("| Unresolved at end of data | %d |\n", r.Unresolved))
	sb.WriteString("\n")

	sb.WriteString("## Performance\n\n")
	if r.Summary == nil || r.Summary.TotalTrades == 0 {
		sb.WriteString("No trades recorded.\n\n")
		return sb.String()
	}
	s := r.Summary

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Win rate | %.2f%% (%d/%d) |\n", s.WinRate*100, s.Wins, s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Total PnL | %.2f pts / %.2f cash |\n", s.TotalPnLPoints, s.TotalPnLCash))
	sb.WriteString(fmt.Sprintf("| Gross profit / loss | %.2f / %.2f |\n", s.GrossProfit, s.GrossLoss))
	sb.WriteString(fmt.Sprintf("| Profit factor | %.3f |\n", s.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Average trade | %.2f |\n", s.AveragePnL))
	sb.WriteString(fmt.Sprintf("| Best / worst trade | %.2f / %.2f |\n", s.BestTrade, s.WorstTrade))
	sb.WriteString(fmt.Sprintf("| Max drawdown | %.2f |\n", s.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Recovery factor | %.3f |\n", s.RecoveryFactor))
	sb.WriteString(fmt.Sprintf("| Max consecutive losses | %d |\n", s.MaxConsecutiveLosses))
	sb.WriteString(fmt.Sprintf("| Sharpe (per trade) | %.3f |\n", s.Sharpe))
	sb.WriteString("\n")

	sb.WriteString("## By Direction\n\n")
	sb.WriteString("| Direction | Trades | Win rate | PnL |\n")
	sb.WriteString("|-----------|--------|----------|-----|\n")
	for _, dir := range []domain.Direction{domain.DirectionSell, domain.DirectionBuy} {
		b, ok := s.ByDirection[dir]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f |\n", dir, b.Trades, b.WinRate*100, b.PnLCash))
	}
	sb.WriteString("\n")

	sb.WriteString("## By Exit Reason\n\n")
	sb.WriteString("| Reason | Trades | Win rate | PnL |\n")
	sb.WriteString("|--------|--------|----------|-----|\n")
	reasons := make([]string, 0, len(s.ByExitReason))
	for reason := range s.ByExitReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		b := s.ByExitReason[reason]
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f |\n", reason, b.Trades, b.WinRate*100, b.PnLCash))
	}
	sb.WriteString("\n")

	return sb.String()
}
