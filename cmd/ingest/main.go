package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/concilia-app/concilia-backend/internal/application/ingest"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/config"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
	"github.com/concilia-app/concilia-backend/internal/observability"
)

func main() {
	var (
		configFile  = flag.String("config", "config.yaml", "Configuration file path")
		dbPath      = flag.String("db", "", "Database path (overrides config)")
		receivables = flag.Bool("receivables", false, "Import a receivables CSV instead of a bank statement")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [-config file] [-db path] [-receivables] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}

	logger := observability.NewComponentLogger(cfg.Observability.Logging, "ingest")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read file", "path", path, "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewIngestor(store, logger)

	if *receivables {
		result, err := ingestor.ImportReceivables(raw)
		if err != nil {
			logger.Error("receivables import failed", "error", err)
			os.Exit(1)
		}

		fmt.Printf("%d receivable(s) imported, %d row(s) skipped\n", result.Imported, len(result.Skipped))
		for _, skip := range result.Skipped {
			fmt.Printf("  line %d: %s\n", skip.Line, skip.Reason)
		}
		return
	}

	result, err := ingestor.IngestStatement(raw, filepath.Base(path))
	if err != nil {
		logger.Error("statement ingestion failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("statement %d: %d transaction(s) imported, %d row(s) skipped\n",
		result.Statement.ID, result.Imported, len(result.Skipped))
	for _, skip := range result.Skipped {
		fmt.Printf("  line %d: %s\n", skip.Line, skip.Reason)
	}
}
