package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// workerStore stubs the two store calls the worker makes.
type workerStore struct {
	ledger.Store

	budgets      []core.Budget
	staleByKind  map[core.PeriodKind][]core.Budget
	listErr      error
	gotOwner     ledger.BudgetOwner
	staleWindows map[core.PeriodKind]core.Date
}

func (s *workerStore) ListBudgets(_ context.Context, owner ledger.BudgetOwner) ([]core.Budget, error) {
	s.gotOwner = owner
	return s.budgets, s.listErr
}

func (s *workerStore) ListStaleBudgets(_ context.Context, period core.PeriodKind, windowStart core.Date, _ time.Time, limit int) ([]core.Budget, error) {
	if s.staleWindows == nil {
		s.staleWindows = map[core.PeriodKind]core.Date{}
	}
	s.staleWindows[period] = windowStart
	out := s.staleByKind[period]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRefresher struct {
	refreshed []string
	failFor   map[string]error
}

func (r *fakeRefresher) RefreshSnapshot(_ context.Context, b core.Budget, _ core.Date) (core.BudgetSnapshot, error) {
	if err := r.failFor[b.ID]; err != nil {
		return core.BudgetSnapshot{}, err
	}
	r.refreshed = append(r.refreshed, b.ID)
	return core.BudgetSnapshot{BudgetID: b.ID}, nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Level: 10, Component: "worker-test"})
}

func TestSnapshotWorker_HandleTransactionEvent(t *testing.T) {
	store := &workerStore{
		budgets: []core.Budget{
			{ID: "b-month", UserID: "u1", Period: core.Monthly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
			{ID: "b-week", UserID: "u1", Period: core.Weekly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
		},
	}
	refresher := &fakeRefresher{}
	w := NewSnapshotWorker(store, refresher, testLogger(), 10, 5*time.Minute)

	event := amqp.NewTransactionEvent(amqp.OpCreated, "tx1", "u1", "fam1", "2025-06-15")
	if err := w.HandleTransactionEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleTransactionEvent() error = %v", err)
	}

	if len(refresher.refreshed) != 2 {
		t.Errorf("refreshed %v, want both budgets", refresher.refreshed)
	}
	if store.gotOwner.UserID != "u1" || store.gotOwner.FamilyID != "fam1" {
		t.Errorf("budget owner scope = %+v", store.gotOwner)
	}
}

func TestSnapshotWorker_HandleTransactionEvent_BadDate(t *testing.T) {
	w := NewSnapshotWorker(&workerStore{}, &fakeRefresher{}, testLogger(), 10, 5*time.Minute)

	event := amqp.NewTransactionEvent(amqp.OpCreated, "tx1", "u1", "", "June 15")
	if err := w.HandleTransactionEvent(context.Background(), event); err == nil {
		t.Error("HandleTransactionEvent() should reject an unparseable date")
	}
}

func TestSnapshotWorker_HandleTransactionEvent_RefreshErrorPropagates(t *testing.T) {
	store := &workerStore{
		budgets: []core.Budget{
			{ID: "b1", UserID: "u1", Period: core.Monthly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
		},
	}
	refresher := &fakeRefresher{failFor: map[string]error{"b1": errors.New("store down")}}
	w := NewSnapshotWorker(store, refresher, testLogger(), 10, 5*time.Minute)

	event := amqp.NewTransactionEvent(amqp.OpCreated, "tx1", "u1", "", "2025-06-15")
	if err := w.HandleTransactionEvent(context.Background(), event); err == nil {
		t.Error("refresh failures must surface so the delivery is requeued")
	}
}

func TestSnapshotWorker_Reconcile(t *testing.T) {
	store := &workerStore{
		staleByKind: map[core.PeriodKind][]core.Budget{
			core.Weekly: {
				{ID: "b-week", UserID: "u1", Period: core.Weekly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
			},
			core.Monthly: {
				{ID: "b-m1", UserID: "u1", Period: core.Monthly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
				{ID: "b-m2", UserID: "u2", Period: core.Monthly, Amount: core.Money{Cents: 100}, Threshold: 0.8},
			},
		},
	}
	refresher := &fakeRefresher{failFor: map[string]error{"b-m1": errors.New("transient")}}
	w := NewSnapshotWorker(store, refresher, testLogger(), 10, 5*time.Minute)
	w.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	if err := w.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// One budget fails, the sweep continues past it.
	if len(refresher.refreshed) != 2 {
		t.Errorf("refreshed %v, want b-week and b-m2", refresher.refreshed)
	}

	// 2025-06-15 is a Sunday, so the weekly window starts Monday the 9th.
	if got := store.staleWindows[core.Weekly]; got != core.NewDate(2025, 6, 9) {
		t.Errorf("weekly window start = %v, want 2025-06-09", got)
	}
	if got := store.staleWindows[core.Monthly]; got != core.NewDate(2025, 6, 1) {
		t.Errorf("monthly window start = %v, want 2025-06-01", got)
	}
	if got := store.staleWindows[core.Yearly]; got != core.NewDate(2025, 1, 1) {
		t.Errorf("yearly window start = %v, want 2025-01-01", got)
	}
}

func TestSnapshotWorker_Run_StopsOnCancel(t *testing.T) {
	w := NewSnapshotWorker(&workerStore{}, &fakeRefresher{}, testLogger(), 10, 5*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
