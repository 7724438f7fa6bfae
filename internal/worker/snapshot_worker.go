// Package worker maintains the budget_snapshots read model. Transaction
// events drive targeted recomputes, a periodic reconcile loop sweeps up
// budgets whose snapshot went stale because an event was lost.
package worker

import (
	"context"
	"fmt"
	"time"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// Refresher recomputes one budget's snapshot for the window containing ref.
type Refresher interface {
	RefreshSnapshot(ctx context.Context, b core.Budget, ref core.Date) (core.BudgetSnapshot, error)
}

type SnapshotWorker struct {
	store     ledger.Store
	refresher Refresher
	logger    *log.Logger
	batchSize int
	staleness time.Duration
	now       func() time.Time
}

func NewSnapshotWorker(store ledger.Store, refresher Refresher, logger *log.Logger, batchSize int, staleness time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		store:     store,
		refresher: refresher,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
		staleness: staleness,
		now:       time.Now,
	}
}

// HandleTransactionEvent recomputes the snapshots of every budget the
// changed transaction can touch. Created and deleted events converge the
// same way: recompute from the store, never apply deltas.
func (w *SnapshotWorker) HandleTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	ref, err := time.Parse("2006-01-02", event.Date)
	if err != nil {
		return fmt.Errorf("parse event date: %w", err)
	}
	date := core.DateOf(ref)

	budgets, err := w.affectedBudgets(ctx, event)
	if err != nil {
		return err
	}

	for _, b := range budgets {
		window := b.Period.WindowFor(date)
		if !window.Contains(date) {
			continue
		}
		if _, err := w.refresher.RefreshSnapshot(ctx, b, date); err != nil {
			return fmt.Errorf("refresh budget %s: %w", b.ID, err)
		}
	}

	w.logger.DebugContext(ctx, "processed transaction event",
		log.FieldTxID, event.ID,
		"op", event.Op,
		"budgets", len(budgets))
	return nil
}

func (w *SnapshotWorker) affectedBudgets(ctx context.Context, event *amqp.TransactionEvent) ([]core.Budget, error) {
	owner := ledger.BudgetOwner{UserID: event.UserID, FamilyID: event.FamilyID}
	budgets, err := w.store.ListBudgets(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Run consumes stale budgets until ctx is canceled, sweeping every period
// kind each interval.
func (w *SnapshotWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "reconcile loop started",
		"interval", interval,
		"batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "reconcile loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "reconcile pass failed", log.FieldError, err)
			}
		}
	}
}

// Reconcile refreshes up to batchSize stale budgets per period kind.
func (w *SnapshotWorker) Reconcile(ctx context.Context) error {
	today := core.DateOf(w.now())
	cutoff := w.now().Add(-w.staleness)

	var refreshed int
	for _, period := range []core.PeriodKind{core.Weekly, core.Monthly, core.Yearly} {
		window := period.WindowFor(today)
		budgets, err := w.store.ListStaleBudgets(ctx, period, window.Start, cutoff, w.batchSize)
		if err != nil {
			return fmt.Errorf("list stale %s budgets: %w", period, err)
		}

		for _, b := range budgets {
			if _, err := w.refresher.RefreshSnapshot(ctx, b, today); err != nil {
				w.logger.ErrorContext(ctx, "failed to refresh stale budget",
					log.FieldError, err,
					log.FieldBudgetID, b.ID)
				continue
			}
			refreshed++
		}
	}

	if refreshed > 0 {
		w.logger.InfoContext(ctx, "reconciled stale snapshots", "count", refreshed)
	}
	return nil
}
