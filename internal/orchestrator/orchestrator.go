// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: ingestion → frames → detection → simulation → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/events"
	"volume-reversion-lab/internal/frames"
	"volume-reversion-lab/internal/observability"
	"volume-reversion-lab/internal/reporting"
	"volume-reversion-lab/internal/simulation"
	"volume-reversion-lab/internal/storage"
)

// Orchestrator coordinates a full backtest run over one session.
// Flow: persist ticks → build frames → detect events → simulate → report
type Orchestrator struct {
	cfg config.Config

	tickStore  storage.TickStore
	frameStore storage.FrameStore
	eventStore storage.EventStore
	tradeStore storage.TradeStore

	verbose bool
}

// Options for creating Orchestrator.
type Options struct {
	// Config must already be validated.
	Config config.Config

	// Required stores
	TickStore  storage.TickStore
	FrameStore storage.FrameStore
	EventStore storage.EventStore
	TradeStore storage.TradeStore

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:        opts.Config,
		tickStore:  opts.TickStore,
		frameStore: opts.FrameStore,
		eventStore: opts.EventStore,
		tradeStore: opts.TradeStore,
		verbose:    opts.Verbose,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Session        string
	TicksIngested  int
	FramesBuilt    int
	EventsDetected int
	TradesCreated  int

	Report *reporting.Report
}

// Run executes the full pipeline over an already loaded tick stream.
// Phases:
//  1. Persist raw ticks
//  2. Build enriched frames and persist them
//  3. Detect big-volume events and persist them
//  4. Simulate trades against the frame stream
//  5. Generate the session report
func (o *Orchestrator) Run(ctx context.Context, ticks []domain.Tick) (result *RunResult, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		observability.RecordPipelineRun("run", status, time.Since(start).Seconds())
	}()

	session := o.cfg.Session.Date
	result = &RunResult{Session: session, TicksIngested: len(ticks)}

	o.log("Phase 1: Persisting %d ticks...", len(ticks))
	if err := o.tickStore.InsertBulk(ctx, session, ticks); err != nil {
		return nil, fmt.Errorf("phase 1 (persist ticks) failed: %w", err)
	}

	o.log("Phase 2: Building frames...")
	builder := frames.NewBuilder(o.cfg.Session)
	frameList := builder.Build(ticks)
	result.FramesBuilt = len(frameList)
	o.log("  Built %d frames", len(frameList))

	if err := o.frameStore.InsertBulk(ctx, session, frameList); err != nil {
		return nil, fmt.Errorf("phase 2 (persist frames) failed: %w", err)
	}

	o.log("Phase 3: Detecting big-volume events...")
	detector := events.NewDetector(o.cfg.Detection, o.cfg.Grid)
	eventList := detector.Detect(frameList)
	result.EventsDetected = len(eventList)
	observability.RecordEventsDetected(len(eventList))
	o.log("  Detected %d events", len(eventList))

	if err := o.eventStore.InsertBulk(ctx, session, eventList); err != nil {
		// A re-run over already persisted input detects the same events.
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("phase 3 (persist events) failed: %w", err)
		}
		o.log("  Events already persisted, continuing")
	}

	o.log("Phase 4: Simulating trades...")
	runner, err := simulation.NewRunner(simulation.RunnerOptions{
		Config:     o.cfg,
		TradeStore: o.tradeStore,
	})
	if err != nil {
		return nil, fmt.Errorf("phase 4 (create runner) failed: %w", err)
	}

	simResult, err := runner.Run(ctx, session, eventList, frameList)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (simulation) failed: %w", err)
	}
	result.TradesCreated = len(simResult.Trades)
	observability.RecordTradesSimulated(len(simResult.Trades))
	o.log("  Created %d trades (%d no-fill, %d filtered, %d unresolved)",
		len(simResult.Trades), simResult.NoFill, simResult.FilterRejected, simResult.Unresolved)

	o.log("Phase 5: Generating report...")
	generator := reporting.NewGenerator(o.tradeStore, o.eventStore, o.frameStore)
	report, err := generator.Generate(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (reporting) failed: %w", err)
	}
	report.Diagnostics(simResult)
	report.TickCount = len(ticks)
	result.Report = report
	observability.RecordReportGenerated()

	o.log("Pipeline completed: %d ticks, %d frames, %d events, %d trades",
		result.TicksIngested, result.FramesBuilt, result.EventsDetected, result.TradesCreated)

	return result, nil
}

// log prints if verbose mode is enabled.
func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf(format, args...)
	}
}
