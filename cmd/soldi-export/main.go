// Command soldi-export writes one user's monthly summary to the configured
// Google Sheets workbook. Meant to be run from cron at month end.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"soldi/internal/config"
	"soldi/internal/export/google"
	"soldi/internal/ledger"
	appLog "soldi/internal/log"
	"soldi/internal/postgres"
	"soldi/internal/services"
	"soldi/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := appLog.New(appLog.Config{Component: appLog.ComponentExport})
	appLog.SetDefault(logger)

	userID := flag.String("user", "", "user ID to export")
	year := flag.Int("year", 0, "year to export (default: current)")
	month := flag.Int("month", 0, "month to export, 1-12 (default: current)")
	flag.Parse()

	if *userID == "" {
		logger.Error("missing -user flag")
		os.Exit(2)
	}
	now := time.Now()
	if *year == 0 {
		*year = now.Year()
	}
	if *month == 0 {
		*month = int(now.Month())
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", appLog.FieldError, err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID not configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize store", appLog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	exporter, err := google.NewFromEnv(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize sheets exporter", appLog.FieldError, err)
		os.Exit(1)
	}

	user, err := store.GetUser(ctx, *userID)
	if err != nil {
		logger.Error("failed to load user", appLog.FieldError, err, appLog.FieldUserID, *userID)
		os.Exit(1)
	}

	transactions := services.NewTransactionService(store, nil, logger)
	summary, err := transactions.Summary(ctx, *userID, *year, *month)
	if err != nil {
		logger.Error("failed to compute summary", appLog.FieldError, err,
			appLog.FieldYear, *year, appLog.FieldMonth, *month)
		os.Exit(1)
	}

	if err := exporter.ExportMonthly(ctx, user.Name, summary); err != nil {
		logger.Error("export failed", appLog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("export complete",
		appLog.FieldUserID, *userID,
		appLog.FieldYear, *year,
		appLog.FieldMonth, *month,
		"categories", len(summary.ByCategory))
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if cfg.DataBackend == "postgres" {
		return postgres.NewRepository(ctx, cfg.PostgresURL)
	}
	return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
}
