package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/ingestion"
	"volume-reversion-lab/internal/observability"
	"volume-reversion-lab/internal/storage"
	chstore "volume-reversion-lab/internal/storage/clickhouse"
	"volume-reversion-lab/internal/storage/memory"
	"volume-reversion-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML configuration file")
	wsURL := flag.String("ws-url", "", "WebSocket endpoint streaming time-and-sales (required)")
	session := flag.String("session", "", "Session tag override (YYYYMMDD)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string override")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run, data is discarded on exit)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if *wsURL == "" {
		logger.Fatal("--ws-url is required")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
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
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
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

	var tickStore storage.TickStore
	if *useMemory || cfg.Storage.UseMemory {
		logger.Printf("Using in-memory tick store; recorded ticks are discarded on exit")
		tickStore = memory.NewTickStore()
	} else {
		if cfg.Storage.ClickhouseDSN == "" {
			logger.Fatal("clickhouse DSN is required unless --use-memory is set")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("set up clickhouse: %v", err)
		}
		defer conn.Close()
		tickStore = chstore.NewTickStore(conn)
	}

	source := ingestion.NewWSTickSource(*wsURL, cfg.Session.Date, tickStore, logger)

	logger.Printf("Recording session %s from %s", cfg.Session.Date, *wsURL)
	if err := source.Record(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("recording failed: %v", err)
	}
	logger.Printf("Recording finished")
}
