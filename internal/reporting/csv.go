package reporting

import (
	"fmt"
	"strings"

	"volume-reversion-lab/internal/domain"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// RenderTradesCSV renders the trade ledger as a CSV string, one row per
// trade in ID order. Optional fields (second entry, take-profit) render as
// empty cells when absent.
func RenderTradesCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("id,direction,event_time,event_close,event_sma,")
	sb.WriteString("entry_time,entry_price,second_entry_time,second_entry_price,avg_entry_price,")
	sb.WriteString("exit_time,exit_price,exit_reason,entry_sma,exit_sma,")
	sb.WriteString("tp_price,sl_price,pnl_points,pnl_cash\n")

	for _, t := range trades {
		secondTime := ""
		if t.SecondEntryTime != nil {
			secondTime = t.SecondEntryTime.Format(csvTimeLayout)
		}
		secondPrice := ""
		if t.SecondEntryPrice != nil {
			secondPrice = fmt.Sprintf("%.2f", *t.SecondEntryPrice)
		}
		tpPrice := ""
		if t.TPPrice != nil {
			tpPrice = fmt.Sprintf("%.2f", *t.TPPrice)
		}

		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.2f,%.4f,%s,%.2f,%s,%s,%.2f,%s,%.2f,%s,%.4f,%.4f,%s,%.2f,%.2f,%.2f\n",
			t.ID,
			t.Direction,
			t.EventTime.Format(csvTimeLayout),
			t.EventClose,
			t.EventSMA,
			t.EntryTime.Format(csvTimeLayout),
			t.EntryPrice,
			secondTime,
			secondPrice,
			t.AvgEntryPrice,
			t.ExitTime.Format(csvTimeLayout),
			t.ExitPrice,
			t.ExitReason,
			t.EntrySMA,
			t.ExitSMA,
			tpPrice,
			t.SLPrice,
			t.PnLPoints,
			t.PnLCash,
		))
	}

	return sb.String()
}

// RenderFramesCSV renders built frames as a CSV string, one row per step.
func RenderFramesCSV(frames []*domain.Frame) string {
	var sb strings.Builder

	sb.WriteString("timestamp,open,high,low,close,previous_close,")
	sb.WriteString("price_change,levels_moved,bid_volume,ask_volume,total_volume,bid_ask_ratio,tick_count,")
	sb.WriteString("profile_bid_volume,profile_ask_volume,profile_total_volume,profile_bid_ask_ratio,")
	sb.WriteString("price_levels,price_range,min_price,max_price,poc_price,poc_volume,sma\n")

	for _, f := range frames {
		sb.WriteString(fmt.Sprintf("%s,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%.2f,%.2f,%.2f,%.4f,%d,%.2f,%.2f,%.2f,%.4f,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.4f\n",
			f.Timestamp.Format(csvTimeLayout),
			f.Open,
			f.High,
			f.Low,
			f.Close,
			f.PreviousClose,
			f.PriceChange,
			f.LevelsMoved,
			f.BidVolume,
			f.AskVolume,
			f.TotalVolume,
			f.BidAskRatio,
			f.TickCount,
			f.ProfileBidVolume,
			f.ProfileAskVolume,
			f.ProfileTotalVolume,
			f.ProfileBidAskRatio,
			f.PriceLevels,
			f.PriceRange,
			f.MinPrice,
			f.MaxPrice,
			f.POCPrice,
			f.POCVolume,
			f.SMA,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as a CSV string with one row per
// trade: the trade's ID, exit time and the cumulative cash PnL after it.
func RenderEquityCSV(trades []*domain.Trade, curve []float64) string {
	var sb strings.Builder
	sb.WriteString("id,exit_time,equity\n")
	for i, t := range trades {
		if i >= len(curve) {
			break
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%.2f\n", t.ID, t.ExitTime.Format(csvTimeLayout), curve[i]))
	}
	return sb.String()
}
