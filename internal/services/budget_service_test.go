package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"soldi/internal/core"
)

func newBudgetFixture() (*fakeStore, *BudgetService) {
	store := newFakeStore()
	svc := NewBudgetService(store, discardLogger())
	return store, svc
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBudgetService_Create(t *testing.T) {
	store, svc := newBudgetFixture()
	seedUser(store, "u1", "Ada")

	t.Run("personal budget", func(t *testing.T) {
		b, err := svc.Create(context.Background(), "u1", core.Budget{
			CategoryID: "cat1",
			Amount:     core.Money{Cents: 50000},
			Period:     core.Monthly,
		}, false)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if b.UserID != "u1" || b.FamilyID != "" {
			t.Errorf("ownership = (%q, %q), want (u1, empty)", b.UserID, b.FamilyID)
		}
		if b.Threshold != core.DefaultThreshold {
			t.Errorf("Threshold = %v, want default %v", b.Threshold, core.DefaultThreshold)
		}
	})

	t.Run("family budget without a family", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "u1", core.Budget{
			Amount: core.Money{Cents: 50000},
			Period: core.Monthly,
		}, true)
		if !errors.Is(err, core.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("family budget", func(t *testing.T) {
		u := store.users["u1"]
		u.FamilyID = "fam1"
		store.users["u1"] = u

		b, err := svc.Create(context.Background(), "u1", core.Budget{
			Amount: core.Money{Cents: 80000},
			Period: core.Monthly,
		}, true)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if b.UserID != "" || b.FamilyID != "fam1" {
			t.Errorf("ownership = (%q, %q), want (empty, fam1)", b.UserID, b.FamilyID)
		}
	})

	t.Run("bad threshold", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "u1", core.Budget{
			Amount:    core.Money{Cents: 100},
			Period:    core.Monthly,
			Threshold: 1.5,
		}, false)
		if !errors.Is(err, core.ErrInvalidThreshold) {
			t.Errorf("error = %v, want ErrInvalidThreshold", err)
		}
	})
}

func TestBudgetService_Progress_RecomputesOnMiss(t *testing.T) {
	store, svc := newBudgetFixture()
	svc.now = fixedNow(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	seedUser(store, "u1", "Ada")
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1", CategoryID: "cat1",
		Amount: core.Money{Cents: 10000}, Period: core.Monthly,
		Threshold: 0.8,
	}
	store.transactions["tx1"] = core.Transaction{
		ID: "tx1", UserID: "u1", AccountID: "a", CategoryID: "cat1",
		Kind: core.Expense, Amount: core.Money{Cents: 4000},
		Date: core.NewDate(2025, 6, 10),
	}

	p, err := svc.Progress(context.Background(), "u1", "b1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Spent.Cents != 4000 {
		t.Errorf("Spent = %d, want 4000", p.Spent.Cents)
	}
	if p.State != core.BudgetOK {
		t.Errorf("State = %s, want ok", p.State)
	}
	if p.Window.Start != core.NewDate(2025, 6, 1) {
		t.Errorf("Window.Start = %v, want 2025-06-01", p.Window.Start)
	}

	// The miss must have written a snapshot for the worker's window.
	if _, err := store.GetSnapshot(context.Background(), "b1", core.NewDate(2025, 6, 1)); err != nil {
		t.Errorf("snapshot should exist after recompute: %v", err)
	}
}

func TestBudgetService_Progress_UsesFreshSnapshot(t *testing.T) {
	store, svc := newBudgetFixture()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = fixedNow(now)
	seedUser(store, "u1", "Ada")
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1",
		Amount: core.Money{Cents: 10000}, Period: core.Monthly,
		Threshold: 0.8,
	}
	store.snapshots[snapshotKey("b1", core.NewDate(2025, 6, 1))] = core.BudgetSnapshot{
		BudgetID:    "b1",
		WindowStart: core.NewDate(2025, 6, 1),
		SpentCents:  9000,
		TxCount:     3,
		ComputedAt:  now.Add(-time.Minute),
	}
	// SumExpenses failing proves the snapshot path never touches it.
	store.failSumExpenses = errors.New("should not be called")

	p, err := svc.Progress(context.Background(), "u1", "b1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Spent.Cents != 9000 || p.TxCount != 3 {
		t.Errorf("progress = spent %d / %d txs, want 9000 / 3", p.Spent.Cents, p.TxCount)
	}
	if p.State != core.BudgetNearLimit {
		t.Errorf("State = %s, want near_limit", p.State)
	}
}

func TestBudgetService_Progress_StaleSnapshotRecomputed(t *testing.T) {
	store, svc := newBudgetFixture()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = fixedNow(now)
	seedUser(store, "u1", "Ada")
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1",
		Amount: core.Money{Cents: 10000}, Period: core.Monthly,
		Threshold: 0.8,
	}
	store.snapshots[snapshotKey("b1", core.NewDate(2025, 6, 1))] = core.BudgetSnapshot{
		BudgetID:    "b1",
		WindowStart: core.NewDate(2025, 6, 1),
		SpentCents:  1,
		ComputedAt:  now.Add(-SnapshotFreshness - time.Minute),
	}
	store.transactions["tx1"] = core.Transaction{
		ID: "tx1", UserID: "u1", AccountID: "a", CategoryID: "c",
		Kind: core.Expense, Amount: core.Money{Cents: 12000},
		Date: core.NewDate(2025, 6, 14),
	}

	p, err := svc.Progress(context.Background(), "u1", "b1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Spent.Cents != 12000 {
		t.Errorf("Spent = %d, want recomputed 12000", p.Spent.Cents)
	}
	if p.State != core.BudgetOver {
		t.Errorf("State = %s, want over", p.State)
	}
}

func TestBudgetService_Progress_Authorization(t *testing.T) {
	store, svc := newBudgetFixture()
	seedUser(store, "u1", "Ada")
	seedUser(store, "u2", "Grace")
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1",
		Amount: core.Money{Cents: 10000}, Period: core.Monthly,
		Threshold: 0.8,
	}

	if _, err := svc.Progress(context.Background(), "u2", "b1"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Progress(context.Background(), "u1", "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBudgetService_Trend(t *testing.T) {
	store, svc := newBudgetFixture()
	svc.now = fixedNow(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	seedUser(store, "u1", "Ada")
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1",
		Amount: core.Money{Cents: 100000}, Period: core.Monthly,
		Threshold: 0.8,
	}

	add := func(id string, cents int64, d core.Date) {
		store.transactions[id] = core.Transaction{
			ID: id, UserID: "u1", AccountID: "a", CategoryID: "c",
			Kind: core.Expense, Amount: core.Money{Cents: cents}, Date: d,
		}
	}
	add("tx-june", 15000, core.NewDate(2025, 6, 10))
	add("tx-may", 10000, core.NewDate(2025, 5, 10))

	trend, err := svc.Trend(context.Background(), "u1", "b1")
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if trend.Direction != core.TrendUp {
		t.Errorf("Direction = %s, want up", trend.Direction)
	}
	if trend.ChangePercent != 50 {
		t.Errorf("ChangePercent = %v, want 50", trend.ChangePercent)
	}
}

func TestBudgetService_Update_PreservesOwnership(t *testing.T) {
	store, svc := newBudgetFixture()
	seedUser(store, "u1", "Ada")
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.budgets["b1"] = core.Budget{
		ID: "b1", UserID: "u1",
		Amount: core.Money{Cents: 10000}, Period: core.Monthly,
		Threshold: 0.8, CreatedAt: created,
	}

	updated, err := svc.Update(context.Background(), "u1", core.Budget{
		ID:     "b1",
		UserID: "someone-else", // must be ignored
		Amount: core.Money{Cents: 20000},
		Period: core.Weekly,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.UserID != "u1" {
		t.Errorf("UserID = %q, ownership must be immutable", updated.UserID)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed to %v", updated.CreatedAt)
	}
	if updated.Amount.Cents != 20000 || updated.Period != core.Weekly {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestBudgetService_List_IncludesFamilyBudgets(t *testing.T) {
	store, svc := newBudgetFixture()
	u := seedUser(store, "u1", "Ada")
	u.FamilyID = "fam1"
	store.users["u1"] = u
	store.budgets["b-own"] = core.Budget{
		ID: "b-own", UserID: "u1",
		Amount: core.Money{Cents: 100}, Period: core.Monthly, Threshold: 0.8,
	}
	store.budgets["b-fam"] = core.Budget{
		ID: "b-fam", FamilyID: "fam1",
		Amount: core.Money{Cents: 100}, Period: core.Monthly, Threshold: 0.8,
	}
	store.budgets["b-other"] = core.Budget{
		ID: "b-other", UserID: "u2",
		Amount: core.Money{Cents: 100}, Period: core.Monthly, Threshold: 0.8,
	}

	budgets, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("List() = %d budgets, want 2", len(budgets))
	}
}
