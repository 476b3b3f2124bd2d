package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/norsao/frotaportal/internal"
	"github.com/norsao/frotaportal/internal/export"
	"github.com/norsao/frotaportal/internal/gateway"
	"github.com/norsao/frotaportal/internal/handler"
	"github.com/norsao/frotaportal/internal/middleware"
	"github.com/norsao/frotaportal/internal/numbering"
	"github.com/norsao/frotaportal/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize persistence
	var (
		gw      gateway.Gateway
		numbers numbering.Generator
	)
	switch cfg.GatewayProvider {
	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		// Run migrations
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database ready")

		gw = gateway.NewPostgres(db, logger)
		numbers = numbering.NewPostgres(db)
	case "memory":
		logger.Warn("Using in-memory gateway; data is lost on restart")
		gw = gateway.NewMemory()
		numbers = numbering.NewMemory()
	}

	// Initialize services
	submissions := service.NewSubmissionService(gw, numbers, logger)
	exporter := export.NewExporter(logger)

	// Initialize handlers
	contractHandler := handler.NewContractHandler(submissions, exporter, logger)

	// Initialize middleware
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", contractHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/contratos/{tipo}", contractHandler.Submit)
	mux.HandleFunc("POST /api/exportar", contractHandler.Export)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      loggingMw.Handler(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "gateway", cfg.GatewayProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
