package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/ingestion"
	"volume-reversion-lab/internal/orchestrator"
	"volume-reversion-lab/internal/reporting"
	"volume-reversion-lab/internal/storage"
	chstore "volume-reversion-lab/internal/storage/clickhouse"
	"volume-reversion-lab/internal/storage/memory"
	"volume-reversion-lab/internal/storage/migrations"
	pgstore "volume-reversion-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML configuration file")
	ticksPath := flag.String("ticks", "", "Path to tick CSV file (required)")
	session := flag.String("session", "", "Session tag override (YYYYMMDD)")
	outputDir := flag.String("output-dir", "reports", "Output directory for report files")
	verbose := flag.Bool("verbose", false, "Verbose pipeline logging")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *ticksPath == "" {
		logger.Fatal("--ticks is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *session != "" {
		cfg.Session.Date = *session
	}
	if cfg.Session.Date == "" {
		logger.Fatal("session date is required (--session, config file, or VRLAB_SESSION_DATE)")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	f, err := os.Open(*ticksPath)
	if err != nil {
		logger.Fatalf("open ticks file: %v", err)
	}
	ticks, err := ingestion.ReadTicks(f)
	f.Close()
	if err != nil {
		logger.Fatalf("read ticks: %v", err)
	}
	logger.Printf("Loaded %d ticks from %s", len(ticks), *ticksPath)

	stores, closeStores, err := buildStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("set up storage: %v", err)
	}
	defer closeStores()

	orch := orchestrator.New(orchestrator.Options{
		Config:     cfg,
		TickStore:  stores.ticks,
		FrameStore: stores.frames,
		EventStore: stores.events,
		TradeStore: stores.trades,
		Verbose:    *verbose,
	})

	result, err := orch.Run(ctx, ticks)
	if err != nil {
		logger.Fatalf("pipeline failed: %v", err)
	}

	if err := writeReport(*outputDir, result.Report); err != nil {
		logger.Fatalf("write report: %v", err)
	}

	logger.Printf("Done: %d frames, %d events, %d trades, output in %s",
		result.FramesBuilt, result.EventsDetected, result.TradesCreated, *outputDir)
}

// stores groups the four backing stores of a run.
type stores struct {
	ticks  storage.TickStore
	frames storage.FrameStore
	events storage.EventStore
	trades storage.TradeStore
}

// buildStores wires in-memory or database-backed stores based on config.
// PostgreSQL holds events and trades; ClickHouse holds ticks and frames.
func buildStores(ctx context.Context, cfg config.StorageConfig) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			ticks:  memory.NewTickStore(),
			frames: memory.NewFrameStore(),
			events: memory.NewEventStore(),
			trades: memory.NewTradeStore(),
		}, func() {}, nil
	}

	if cfg.PostgresDSN == "" || cfg.ClickhouseDSN == "" {
		return nil, nil, fmt.Errorf("postgres and clickhouse DSNs are required unless use_memory is set")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeAll := func() {
		conn.Close()
		pool.Close()
	}

	return &stores{
		ticks:  chstore.NewTickStore(conn),
		frames: chstore.NewFrameStore(conn),
		events: pgstore.NewEventStore(pool),
		trades: pgstore.NewTradeStore(pool),
	}, closeAll, nil
}

// writeReport renders the markdown summary plus trade and equity CSVs.
func writeReport(dir string, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := map[string]string{
		fmt.Sprintf("report_%s.md", report.Session):  reporting.RenderMarkdown(report),
		fmt.Sprintf("trades_%s.csv", report.Session): reporting.RenderTradesCSV(report.Trades),
		fmt.Sprintf("equity_%s.csv", report.Session): reporting.RenderEquityCSV(report.Trades, report.Summary.EquityCurve),
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
