package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/concilia-app/concilia-backend/internal/application/reconcile"
	"github.com/concilia-app/concilia-backend/internal/domain/matching"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/config"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
	"github.com/concilia-app/concilia-backend/internal/observability"
)

func main() {
	var (
		configFile    = flag.String("config", "config.yaml", "Configuration file path")
		dbPath        = flag.String("db", "", "Database path (overrides config)")
		minConfidence = flag.Float64("min-confidence", 0, "Auto-reconciliation threshold (0 = configured default)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}
	if *verbose {
		cfg.Observability.Logging.Level = slog.LevelDebug.String()
	}

	logger := observability.NewComponentLogger(cfg.Observability.Logging, "reconcile")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	threshold := *minConfidence
	if threshold == 0 {
		threshold = cfg.Reconciliation.MinConfidence
	}

	engine := reconcile.NewEngine(store, matching.NewFinder(matching.DefaultConfig()), logger)

	result, err := engine.RunAutomatic(context.Background(), threshold)
	if err != nil {
		logger.Error("automatic sweep failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("run %s: %d transaction(s) reconciled\n", result.RunID, result.Count)
	for _, entry := range result.Results {
		fmt.Printf("  transaction %d -> receivable %d (confidence %.2f; %s)\n",
			entry.TransactionID, entry.ReceivableID, entry.Confidence, entry.Factors)
	}
}
