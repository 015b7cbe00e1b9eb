package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/frames"
	"volume-reversion-lab/internal/ingestion"
	"volume-reversion-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML configuration file")
	ticksPath := flag.String("ticks", "", "Path to tick CSV file (required)")
	outPath := flag.String("out", "", "Output CSV path (default stdout)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[frames] ", log.LstdFlags)

	if *ticksPath == "" {
		logger.Fatal("--ticks is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	f, err := os.Open(*ticksPath)
	if err != nil {
		logger.Fatalf("open ticks file: %v", err)
	}
	ticks, err := ingestion.ReadTicks(f)
	f.Close()
	if err != nil {
		logger.Fatalf("read ticks: %v", err)
	}

	frameList := frames.NewBuilder(cfg.Session).Build(ticks)
	logger.Printf("Built %d frames from %d ticks", len(frameList), len(ticks))

	out := reporting.RenderFramesCSV(frameList)
	if *outPath == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*outPath, []byte(out), 0o644); err != nil {
		logger.Fatalf("write output: %v", err)
	}
	logger.Printf("Wrote %s", *outPath)
}
