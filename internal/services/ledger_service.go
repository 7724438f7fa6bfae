package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// LedgerService covers accounts and categories, the reference data
// transactions hang off.
type LedgerService struct {
	store  ledger.Store
	logger *log.Logger
}

func NewLedgerService(store ledger.Store, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger.WithComponent(log.ComponentApp),
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.UserID = userID
	a.Archived = false
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	return a, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

// AccountWithBalance resolves the running balance from the initial amount
// and the account's transaction history.
func (s *LedgerService) AccountWithBalance(ctx context.Context, userID, accountID string) (core.Account, core.Money, error) {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Account{}, core.Money{}, err
	}
	if a.UserID != userID {
		return core.Account{}, core.Money{}, core.ErrForbidden
	}

	txs, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{
		UserID:    userID,
		AccountID: accountID,
	})
	if err != nil {
		return core.Account{}, core.Money{}, fmt.Errorf("list transactions: %w", err)
	}
	return a, core.AccountBalance(a, txs), nil
}

// ArchiveAccount hides an account from new transactions without touching
// its history.
func (s *LedgerService) ArchiveAccount(ctx context.Context, userID, accountID string) error {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return core.ErrForbidden
	}
	return s.store.ArchiveAccount(ctx, accountID)
}

// CreateCategory adds a custom category on top of the persona seed. When
// family is true the category is shared with the caller's family.
func (s *LedgerService) CreateCategory(ctx context.Context, userID string, c core.Category, family bool) (core.Category, error) {
	c.ID = uuid.NewString()
	if family {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return core.Category{}, fmt.Errorf("load profile: %w", err)
		}
		if user.FamilyID == "" {
			return core.Category{}, fmt.Errorf("%w: not in a family", core.ErrConflict)
		}
		c.UserID = ""
		c.FamilyID = user.FamilyID
	} else {
		c.UserID = userID
		c.FamilyID = ""
	}

	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// ListCategories returns the caller's own categories plus their family's.
func (s *LedgerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return s.store.ListCategories(ctx, userID, user.FamilyID)
}

// DeleteCategory removes a category the caller owns. Family categories can
// only be deleted by the family owner.
func (s *LedgerService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return err
	}

	var target *core.Category
	for i := range categories {
		if categories[i].ID == categoryID {
			target = &categories[i]
			break
		}
	}
	if target == nil {
		return core.ErrNotFound
	}

	if target.FamilyID != "" {
		f, err := s.store.GetFamily(ctx, target.FamilyID)
		if err != nil {
			return err
		}
		if f.OwnerID != userID {
			return core.ErrForbidden
		}
	}

	// Existing transactions keep the dangling reference; history stays put.
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted",
		log.FieldUserID, userID,
		"category_id", categoryID)
	return nil
}
