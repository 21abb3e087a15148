package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concilia-app/concilia-backend/internal/api"
	"github.com/concilia-app/concilia-backend/internal/application/ingest"
	"github.com/concilia-app/concilia-backend/internal/application/reconcile"
	"github.com/concilia-app/concilia-backend/internal/domain/matching"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/config"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
	"github.com/concilia-app/concilia-backend/internal/observability"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := observability.NewComponentLogger(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	matcherCfg := matching.DefaultConfig()
	finder := matching.NewFinder(matcherCfg)
	ingestor := ingest.NewIngestor(store, logger)
	engine := reconcile.NewEngine(store, finder, logger)

	server := api.NewServer(cfg, store, ingestor, engine, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
