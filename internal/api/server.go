// Package api wires the HTTP surface of the reconciliation service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/handlers"
	"github.com/concilia-app/concilia-backend/internal/application/ingest"
	"github.com/concilia-app/concilia-backend/internal/application/reconcile"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/config"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router and wires every handler.
func NewServer(cfg *config.Config, repo storage.Repository, ingestor *ingest.Ingestor, engine *reconcile.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	statements := handlers.NewStatements(repo, ingestor, logger)
	receivables := handlers.NewReceivables(repo, ingestor, logger)
	reconciliations := handlers.NewReconciliations(repo, engine, cfg.Reconciliation.MinConfidence, logger)
	rules := handlers.NewRules(repo, logger)

	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	{
		api.POST("/statements/upload", statements.Upload)
		api.GET("/statements", statements.List)
		api.GET("/statements/:id/transactions", statements.Transactions)
		api.DELETE("/statements/:id", statements.Delete)

		api.POST("/receivables", receivables.Create)
		api.GET("/receivables", receivables.List)
		api.GET("/receivables/pending", receivables.Pending)
		api.POST("/receivables/import", receivables.Import)
		api.GET("/receivables/:id", receivables.Get)
		api.PUT("/receivables/:id", receivables.Update)
		api.DELETE("/receivables/:id", receivables.Delete)

		api.POST("/reconciliations/automatic", reconciliations.Automatic)
		api.GET("/reconciliations/suggestions/:transactionId", reconciliations.Suggestions)
		api.POST("/reconciliations/manual", reconciliations.Manual)
		api.GET("/reconciliations", reconciliations.List)
		api.GET("/reconciliations/pending", reconciliations.Pending)
		api.DELETE("/reconciliations/:id", reconciliations.Delete)

		api.GET("/rules", rules.List)
		api.POST("/rules", rules.Create)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Router exposes the underlying router for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
