// Package ledger declares the outbound ports the services and HTTP layer
// depend on. Both the SQLite and Postgres stores implement Store.
package ledger

import (
	"context"
	"time"

	"soldi/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean "any".
// FamilyID selects the transactions of every family member.
type TransactionFilter struct {
	UserID     string
	FamilyID   string
	AccountID  string
	CategoryID string
	Kind       core.TransactionKind
	Year       int
	Month      int // requires Year
	Limit      int
}

// SpendScope is the population SumExpenses aggregates over: one user or one
// family, optionally narrowed to a category, inside [Start, End).
type SpendScope struct {
	UserID     string
	FamilyID   string
	CategoryID string
	Start      core.Date
	End        core.Date
}

// BudgetOwner selects budgets belonging to a user, a family, or both.
type BudgetOwner struct {
	UserID   string
	FamilyID string
}

type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.UserProfile) error
		GetUser(ctx context.Context, id string) (core.UserProfile, error)
	}

	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		ArchiveAccount(ctx context.Context, id string) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		// CreateCategories inserts a persona bundle in one transaction.
		CreateCategories(ctx context.Context, cs []core.Category) error
		ListCategories(ctx context.Context, userID, familyID string) ([]core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		// SumExpenses aggregates spend in the store so budget progress does
		// not load every row.
		SumExpenses(ctx context.Context, scope SpendScope) (cents int64, count int64, err error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id string) error
		ListBudgets(ctx context.Context, owner BudgetOwner) ([]core.Budget, error)
	}

	FamilyStore interface {
		// CreateFamily writes the family row, the owner membership and the
		// profile back-reference in a single transaction.
		CreateFamily(ctx context.Context, f core.Family, owner core.FamilyMember) error
		GetFamily(ctx context.Context, id string) (core.Family, error)
		GetFamilyByInvite(ctx context.Context, code string) (core.Family, error)
		// AddMember writes the membership and the profile back-reference
		// atomically. A second join for the same user fails.
		AddMember(ctx context.Context, m core.FamilyMember) error
		// RemoveMember deletes the membership and clears the profile
		// back-reference atomically.
		RemoveMember(ctx context.Context, familyID, userID string) error
		ListMembers(ctx context.Context, familyID string) ([]core.FamilyMember, error)
		UpdateInviteCode(ctx context.Context, familyID, code string) error
		DeleteFamily(ctx context.Context, familyID string) error
	}

	SnapshotStore interface {
		UpsertSnapshot(ctx context.Context, s core.BudgetSnapshot) error
		GetSnapshot(ctx context.Context, budgetID string, windowStart core.Date) (core.BudgetSnapshot, error)
		// ListStaleBudgets returns budgets of one period kind whose
		// current-window snapshot is missing or older than the cutoff, the
		// reconcile backstop for lost queue messages. Window starts differ
		// per period kind, hence the kind parameter.
		ListStaleBudgets(ctx context.Context, period core.PeriodKind, windowStart core.Date, olderThan time.Time, limit int) ([]core.Budget, error)
	}
)

// Store is the full persistence surface.
type Store interface {
	UserStore
	AccountStore
	CategoryStore
	TransactionStore
	BudgetStore
	FamilyStore
	SnapshotStore

	Close() error
}
