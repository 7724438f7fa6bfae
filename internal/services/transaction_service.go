// Package services holds the application layer: validation, authorization
// and orchestration between the store and the event queue.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// EventPublisher is the slice of the AMQP client the services need. A nil
// publisher disables events, the reconcile loop still converges snapshots.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// TransactionService records and lists transactions and publishes change
// events for the snapshot worker.
type TransactionService struct {
	store  ledger.Store
	events EventPublisher
	logger *log.Logger
	now    func() time.Time
}

func NewTransactionService(store ledger.Store, events EventPublisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentApp),
		now:    time.Now,
	}
}

// Create validates and saves a transaction for user. The event publish is
// best effort: a dead broker must not fail the write.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	account, err := s.store.GetAccount(ctx, t.AccountID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load account: %w", err)
	}
	if account.UserID != userID {
		return core.Transaction{}, core.ErrForbidden
	}
	if account.Archived {
		return core.Transaction{}, fmt.Errorf("%w: account is archived", core.ErrConflict)
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.OpCreated, t)
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.authorize(ctx, userID, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	// Only the author can delete, family visibility is read-only.
	if t.UserID != userID {
		return core.ErrForbidden
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.OpDeleted, t)
	return nil
}

// List returns the caller's transactions. When family is true and the caller
// belongs to one, the whole family's transactions are returned.
func (s *TransactionService) List(ctx context.Context, userID string, family bool, f ledger.TransactionFilter) ([]core.Transaction, error) {
	f.UserID = userID
	f.FamilyID = ""
	if family {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		f.FamilyID = user.FamilyID
	}
	return s.store.ListTransactions(ctx, f)
}

// Summary aggregates one calendar month and classifies the spend trend
// against the month before.
func (s *TransactionService) Summary(ctx context.Context, userID string, year, month int) (core.PeriodSummary, error) {
	window := core.MonthWindow(year, month)

	txs, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{
		UserID: userID,
		Year:   year,
		Month:  month,
	})
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("load profile: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, userID, user.FamilyID)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	summary := core.Summarize(window, txs, names)

	previous := core.Monthly.Previous(window)
	prevCents, _, err := s.store.SumExpenses(ctx, ledger.SpendScope{
		UserID: userID,
		Start:  previous.Start,
		End:    previous.End,
	})
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("sum previous month: %w", err)
	}
	summary.Trend = core.ClassifyTrend(summary.Expenses, core.Money{Cents: prevCents})

	return summary, nil
}

func (s *TransactionService) authorize(ctx context.Context, userID string, t core.Transaction) error {
	if t.UserID == userID {
		return nil
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.FamilyID == "" {
		return core.ErrForbidden
	}
	author, err := s.store.GetUser(ctx, t.UserID)
	if err != nil {
		return err
	}
	if author.FamilyID != user.FamilyID {
		return core.ErrForbidden
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, op string, t core.Transaction) {
	if s.events == nil {
		return
	}
	familyID := ""
	if user, err := s.store.GetUser(ctx, t.UserID); err == nil {
		familyID = user.FamilyID
	}
	event := amqp.NewTransactionEvent(op, t.ID, t.UserID, familyID, t.Date.Format("2006-01-02"))
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		// Snapshots go stale until the reconcile loop runs, nothing lost.
		s.logger.ErrorContext(ctx, "failed to publish transaction event",
			log.FieldError, err,
			log.FieldTxID, t.ID,
			"op", op)
	}
}
