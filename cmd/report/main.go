package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/reporting"
	chstore "volume-reversion-lab/internal/storage/clickhouse"
	pgstore "volume-reversion-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML configuration file")
	session := flag.String("session", "", "Session tag override (YYYYMMDD)")
	outputDir := flag.String("output-dir", "reports", "Output directory for report files")
	toStdout := flag.Bool("stdout", false, "Print the markdown report to stdout instead of writing files")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

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
	if cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "" {
		logger.Fatal("postgres and clickhouse DSNs are required; reports are generated from stored sessions")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	generator := reporting.NewGenerator(
		pgstore.NewTradeStore(pool),
		pgstore.NewEventStore(pool),
		chstore.NewFrameStore(conn),
	)

	report, err := generator.Generate(ctx, cfg.Session.Date)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	if *toStdout {
		fmt.Print(reporting.RenderMarkdown(report))
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	files := map[string]string{
		fmt.Sprintf("report_%s.md", report.Session):  reporting.RenderMarkdown(report),
		fmt.Sprintf("trades_%s.csv", report.Session): reporting.RenderTradesCSV(report.Trades),
		fmt.Sprintf("equity_%s.csv", report.Session): reporting.RenderEquityCSV(report.Trades, report.Summary.EquityCurve),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(*outputDir, name), []byte(content), 0o644); err != nil {
			logger.Fatalf("write %s: %v", name, err)
		}
	}

	logger.Printf("Wrote report for session %s (%d trades) to %s",
		report.Session, report.Summary.TotalTrades, *outputDir)
}
