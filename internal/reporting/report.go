// Package reporting renders a session's trade ledger and performance
// summary as CSV and Markdown.
package reporting

import (
	"time"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/metrics"
	"volume-reversion-lab/internal/simulation"
)

// Report is the rendered view of one session run.
type Report struct {
	GeneratedAt time.Time
	Session     string // YYYYMMDD tag

	// Pipeline shape
	TickCount  int
	FrameCount int
	EventCount int

	// Candidates that did not make the ledger
	NoFill         int
	FilterRejected int
	Unresolved     int

	Summary *metrics.Summary
	Trades  []*domain.Trade
}

// Diagnostics copies the simulation counters into the report.
func (r *Report) Diagnostics(res *simulation.Result) {
	r.NoFill = res.NoFill
	r.FilterRejected = res.FilterRejected
	r.Unresolved = res.Unresolved
}
