package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"soldi/internal/amqp"
	"soldi/internal/config"
	"soldi/internal/ledger"
	appLog "soldi/internal/log"
	"soldi/internal/postgres"
	"soldi/internal/services"
	"soldi/internal/storage"
	"soldi/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := appLog.New(appLog.Config{Component: appLog.ComponentWorker})
	appLog.SetDefault(logger)

	logger.Info("starting soldi-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", appLog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize store", appLog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("failed to initialize AMQP client", appLog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	budgets := services.NewBudgetService(store, logger)
	snapshotWorker := worker.NewSnapshotWorker(store, budgets, logger,
		cfg.SnapshotBatchSize, services.SnapshotFreshness)

	// One reconcile pass on startup covers anything missed while down.
	if err := snapshotWorker.Reconcile(ctx); err != nil {
		logger.Error("startup reconcile failed", appLog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, snapshotWorker.HandleTransactionEvent)
	})
	g.Go(func() error {
		return snapshotWorker.Run(gctx, cfg.SnapshotInterval)
	})

	logger.Info("soldi-worker running",
		"queue", cfg.AMQPQueue,
		"reconcile_interval", cfg.SnapshotInterval.String(),
		"batch_size", cfg.SnapshotBatchSize)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", appLog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("soldi-worker stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if cfg.DataBackend == "postgres" {
		return postgres.NewRepository(ctx, cfg.PostgresURL)
	}
	return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
}
