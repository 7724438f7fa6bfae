// Command soldi-seed populates the configured backend with demo data:
// a handful of users, a shared family, months of transactions and a few
// budgets. Useful for local development and demos.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/joho/godotenv"

	"soldi/internal/config"
	"soldi/internal/core"
	"soldi/internal/ledger"
	appLog "soldi/internal/log"
	"soldi/internal/postgres"
	"soldi/internal/services"
	"soldi/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := appLog.New(appLog.Config{Component: appLog.ComponentSeed})
	appLog.SetDefault(logger)

	users := flag.Int("users", 3, "number of demo users")
	months := flag.Int("months", 3, "months of transaction history")
	perMonth := flag.Int("per-month", 20, "transactions per user per month")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", appLog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize store", appLog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(ctx, store, logger, rng, *users, *months, *perMonth); err != nil {
		logger.Error("seeding failed", appLog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("seeding complete", "users", *users, "months", *months, "seed", *seed)
}

func run(ctx context.Context, store ledger.Store, logger *appLog.Logger, rng *rand.Rand, users, months, perMonth int) error {
	userSvc := services.NewUserService(store, logger)
	ledgerSvc := services.NewLedgerService(store, logger)
	txSvc := services.NewTransactionService(store, nil, logger)
	budgetSvc := services.NewBudgetService(store, logger)
	familySvc := services.NewFamilyService(store, logger)

	personas := core.Personas()

	var profiles []core.UserProfile
	var categories [][]core.Category
	for i := 0; i < users; i++ {
		persona := personas[rng.Intn(len(personas))]
		profile, cats, err := userSvc.Signup(ctx, faker.FirstName(), faker.Email(), persona.Name)
		if err != nil {
			return fmt.Errorf("signup: %w", err)
		}
		profiles = append(profiles, profile)
		categories = append(categories, cats)
		logger.Info("user created",
			appLog.FieldUserID, profile.ID,
			"name", profile.Name,
			appLog.FieldPersona, profile.Persona)
	}

	// First user owns a family, the rest join it.
	if len(profiles) > 1 {
		family, err := familySvc.Create(ctx, profiles[0].ID, faker.LastName()+" family")
		if err != nil {
			return fmt.Errorf("create family: %w", err)
		}
		for _, p := range profiles[1:] {
			if _, err := familySvc.Join(ctx, p.ID, family.InviteCode); err != nil {
				return fmt.Errorf("join family: %w", err)
			}
		}
		logger.Info("family created", appLog.FieldFamilyID, family.ID, "members", len(profiles))
	}

	for i, profile := range profiles {
		accounts, err := ledgerSvc.ListAccounts(ctx, profile.ID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		bank, err := ledgerSvc.CreateAccount(ctx, profile.ID, core.Account{
			Name:         "Checking",
			Kind:         core.BankAccount,
			InitialCents: int64(rng.Intn(500_000)) + 100_000,
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		accounts = append(accounts, bank)

		expenseCats := filterByKind(categories[i], core.Expense)
		incomeCats := filterByKind(categories[i], core.Income)
		if len(expenseCats) == 0 || len(incomeCats) == 0 {
			return fmt.Errorf("persona %q seeded no usable categories", profile.Persona)
		}

		if err := seedTransactions(ctx, txSvc, rng, profile.ID, accounts, expenseCats, incomeCats, months, perMonth); err != nil {
			return err
		}

		// A monthly budget on a random expense category plus one overall.
		cat := expenseCats[rng.Intn(len(expenseCats))]
		if _, err := budgetSvc.Create(ctx, profile.ID, core.Budget{
			CategoryID: cat.ID,
			Amount:     core.Money{Cents: int64(rng.Intn(30_000)) + 20_000},
			Period:     core.Monthly,
		}, false); err != nil {
			return fmt.Errorf("create budget: %w", err)
		}
		if _, err := budgetSvc.Create(ctx, profile.ID, core.Budget{
			Amount: core.Money{Cents: int64(rng.Intn(100_000)) + 100_000},
			Period: core.Monthly,
		}, false); err != nil {
			return fmt.Errorf("create overall budget: %w", err)
		}
	}
	return nil
}

func seedTransactions(ctx context.Context, txSvc *services.TransactionService, rng *rand.Rand, userID string, accounts []core.Account, expenseCats, incomeCats []core.Category, months, perMonth int) error {
	today := time.Now().UTC()
	for m := 0; m < months; m++ {
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -m, 0)

		// Salary on the first of the month.
		salary := core.Transaction{
			AccountID:  accounts[0].ID,
			CategoryID: incomeCats[0].ID,
			Kind:       core.Income,
			Amount:     core.Money{Cents: int64(rng.Intn(100_000)) + 200_000},
			Date:       core.DateOf(monthStart),
			Note:       "salary",
		}
		if _, err := txSvc.Create(ctx, userID, salary); err != nil {
			return fmt.Errorf("seed income: %w", err)
		}

		lastDay := monthStart.AddDate(0, 1, -1).Day()
		for i := 0; i < perMonth; i++ {
			day := rng.Intn(lastDay) + 1
			date := time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC)
			if date.After(today) {
				continue
			}
			tx := core.Transaction{
				AccountID:  accounts[rng.Intn(len(accounts))].ID,
				CategoryID: expenseCats[rng.Intn(len(expenseCats))].ID,
				Kind:       core.Expense,
				Amount:     core.Money{Cents: int64(rng.Intn(15_000)) + 100},
				Date:       core.DateOf(date),
				Note:       faker.Word(),
			}
			if _, err := txSvc.Create(ctx, userID, tx); err != nil {
				return fmt.Errorf("seed expense: %w", err)
			}
		}
	}
	return nil
}

func filterByKind(cats []core.Category, kind core.TransactionKind) []core.Category {
	var out []core.Category
	for _, c := range cats {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if cfg.DataBackend == "postgres" {
		return postgres.NewRepository(ctx, cfg.PostgresURL)
	}
	return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
}
