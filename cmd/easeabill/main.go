package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"easeabill/internal/amqp"
	"easeabill/internal/auth"
	"easeabill/internal/cohort"
	"easeabill/internal/config"
	"easeabill/internal/goals"
	apphttp "easeabill/internal/http"
	"easeabill/internal/ingest"
	applog "easeabill/internal/log"
	"easeabill/internal/services"
	"easeabill/internal/stats"
	"easeabill/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it expenses still save, they just never reach
	// the worker.
	var publisher services.Publisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPAlertQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, messages will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	// The Dedalus client powers audio/receipt ingestion and, when enabled,
	// alert message rewriting.
	var ingestor *ingest.Client
	var rewriter goals.MessageRewriter
	if cfg.DedalusAPIKey != "" {
		ingestor = ingest.NewClient(cfg.DedalusAPIKey)
		if cfg.RoastAlerts {
			rewriter = ingest.NewRoaster(ingestor)
		}
	} else {
		logger.Info("Dedalus disabled - no DEDALUS_API_KEY provided")
	}

	evaluator := goals.NewEvaluator(repo, goals.WithThresholds(cfg.WarnPercentUsed, cfg.WarnAheadPercent))
	authSvc := auth.NewService(repo)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Storage:    repo,
		Auth:       authSvc,
		Expenses:   services.NewExpenseService(repo, evaluator, publisher, rewriter),
		BudgetGen:  services.NewBudgetGenerator(repo),
		Evaluator:  evaluator,
		Aggregator: stats.NewAggregator(repo),
		Comparator: cohort.NewComparator(repo),
		Ingestor:   ingestor,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodically sweep expired tokens so the table doesn't grow unbounded.
	go func() {
		ticker := time.NewTicker(cfg.TokenSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := authSvc.SweepExpiredTokens(ctx); err != nil {
					logger.Error("Token sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("Swept expired tokens", "count", n)
				}
			}
		}
	}()

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err, applog.FieldOperation, applog.OpShutdown)
		}
		cancel()
	}()

	logger.Info("Starting easeabill server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
