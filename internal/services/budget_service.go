package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// SnapshotFreshness is how old a budget snapshot may be before a progress
// read recomputes it inline.
const SnapshotFreshness = 5 * time.Minute

// BudgetService manages budgets and serves progress through the snapshot
// read model, recomputing on miss or staleness.
type BudgetService struct {
	store  ledger.Store
	logger *log.Logger
	now    func() time.Time
}

func NewBudgetService(store ledger.Store, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:  store,
		logger: logger.WithComponent(log.ComponentBudget),
		now:    time.Now,
	}
}

// Create saves a budget owned by the caller. A family budget requires
// membership in that family.
func (s *BudgetService) Create(ctx context.Context, userID string, b core.Budget, family bool) (core.Budget, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UTC()
	if b.Threshold == 0 {
		b.Threshold = core.DefaultThreshold
	}

	if family {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return core.Budget{}, fmt.Errorf("load profile: %w", err)
		}
		if user.FamilyID == "" {
			return core.Budget{}, fmt.Errorf("%w: not in a family", core.ErrConflict)
		}
		b.UserID = ""
		b.FamilyID = user.FamilyID
	} else {
		b.UserID = userID
		b.FamilyID = ""
	}

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	existing, err := s.get(ctx, userID, b.ID)
	if err != nil {
		return core.Budget{}, err
	}

	// Ownership and creation time are immutable.
	b.UserID = existing.UserID
	b.FamilyID = existing.FamilyID
	b.CreatedAt = existing.CreatedAt
	if b.Threshold == 0 {
		b.Threshold = existing.Threshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteBudget(ctx, id)
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return s.store.ListBudgets(ctx, ledger.BudgetOwner{UserID: userID, FamilyID: user.FamilyID})
}

// Progress reports how far into a budget the current window's spend is.
// It reads the snapshot when fresh and recomputes it otherwise, so a
// stopped worker degrades latency, not correctness.
func (s *BudgetService) Progress(ctx context.Context, userID, budgetID string) (core.BudgetProgress, error) {
	b, err := s.get(ctx, userID, budgetID)
	if err != nil {
		return core.BudgetProgress{}, err
	}

	window := b.Period.WindowFor(core.DateOf(s.now()))
	spent, count, err := s.windowSpend(ctx, b, window)
	if err != nil {
		return core.BudgetProgress{}, err
	}

	progress := core.ComputeProgress(b, window, core.Money{Cents: spent}, int(count))
	return progress, nil
}

// ProgressAll resolves progress for every budget visible to the caller.
func (s *BudgetService) ProgressAll(ctx context.Context, userID string) ([]core.BudgetProgress, error) {
	budgets, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := core.DateOf(s.now())
	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		window := b.Period.WindowFor(today)
		spent, count, err := s.windowSpend(ctx, b, window)
		if err != nil {
			return nil, err
		}
		out = append(out, core.ComputeProgress(b, window, core.Money{Cents: spent}, int(count)))
	}
	return out, nil
}

// Trend compares the budget's current window spend with the previous one.
func (s *BudgetService) Trend(ctx context.Context, userID, budgetID string) (core.Trend, error) {
	b, err := s.get(ctx, userID, budgetID)
	if err != nil {
		return core.Trend{}, err
	}

	window := b.Period.WindowFor(core.DateOf(s.now()))
	current, _, err := s.windowSpend(ctx, b, window)
	if err != nil {
		return core.Trend{}, err
	}

	previous := b.Period.Previous(window)
	prevCents, _, err := s.store.SumExpenses(ctx, spendScope(b, previous))
	if err != nil {
		return core.Trend{}, fmt.Errorf("sum previous window: %w", err)
	}

	return core.ClassifyTrend(core.Money{Cents: current}, core.Money{Cents: prevCents}), nil
}

// RefreshSnapshot recomputes and stores the snapshot for b's window
// containing ref. Shared with the worker.
func (s *BudgetService) RefreshSnapshot(ctx context.Context, b core.Budget, ref core.Date) (core.BudgetSnapshot, error) {
	window := b.Period.WindowFor(ref)
	cents, count, err := s.store.SumExpenses(ctx, spendScope(b, window))
	if err != nil {
		return core.BudgetSnapshot{}, fmt.Errorf("sum window: %w", err)
	}

	snapshot := core.BudgetSnapshot{
		BudgetID:    b.ID,
		WindowStart: window.Start,
		SpentCents:  cents,
		TxCount:     count,
		ComputedAt:  s.now().UTC(),
	}
	if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return core.BudgetSnapshot{}, fmt.Errorf("%w: %v", core.ErrSyncFailed, err)
	}
	return snapshot, nil
}

func (s *BudgetService) windowSpend(ctx context.Context, b core.Budget, window core.Window) (int64, int64, error) {
	snapshot, err := s.store.GetSnapshot(ctx, b.ID, window.Start)
	switch {
	case err == nil && s.now().Sub(snapshot.ComputedAt) <= SnapshotFreshness:
		return snapshot.SpentCents, snapshot.TxCount, nil
	case err != nil && !errors.Is(err, core.ErrNotFound):
		return 0, 0, fmt.Errorf("load snapshot: %w", err)
	}

	refreshed, err := s.RefreshSnapshot(ctx, b, window.Start)
	if err != nil {
		return 0, 0, err
	}
	return refreshed.SpentCents, refreshed.TxCount, nil
}

func (s *BudgetService) get(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID == userID {
		return b, nil
	}
	if b.FamilyID != "" {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return core.Budget{}, err
		}
		if user.FamilyID == b.FamilyID {
			return b, nil
		}
	}
	return core.Budget{}, core.ErrForbidden
}

func spendScope(b core.Budget, w core.Window) ledger.SpendScope {
	return ledger.SpendScope{
		UserID:     b.UserID,
		FamilyID:   b.FamilyID,
		CategoryID: b.CategoryID,
		Start:      w.Start,
		End:        w.End,
	}
}
