package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soldi/internal/amqp"
	"soldi/internal/config"
	"soldi/internal/export/google"
	apphttp "soldi/internal/http"
	"soldi/internal/ledger"
	"soldi/internal/ledger/memstore"
	appLog "soldi/internal/log"
	"soldi/internal/postgres"
	"soldi/internal/services"
	"soldi/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := appLog.New(appLog.Config{Component: appLog.ComponentApp})
	appLog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", appLog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize store", appLog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store initialized", "backend", cfg.DataBackend)

	// AMQP is optional: without it transaction events are not published and
	// snapshot refresh relies on the worker's reconcile loop alone.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", appLog.FieldError, err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var exporter apphttp.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		exp, err := google.NewFromEnv(ctx, logger)
		if err != nil {
			logger.Warn("sheets exporter unavailable", appLog.FieldError, err)
		} else {
			exporter = exp
			logger.Info("sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Services{
		Users:        services.NewUserService(store, logger),
		Ledger:       services.NewLedgerService(store, logger),
		Transactions: services.NewTransactionService(store, events, logger),
		Budgets:      services.NewBudgetService(store, logger),
		Families:     services.NewFamilyService(store, logger),
		Exporter:     exporter,
	}, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", appLog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting soldi server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", appLog.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	switch cfg.DataBackend {
	case "postgres":
		return postgres.NewRepository(ctx, cfg.PostgresURL)
	case "memory":
		return memstore.New(), nil
	default:
		return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	}
}
