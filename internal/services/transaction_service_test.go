package services

import (
	"context"
	"errors"
	"testing"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
)

func newTxFixture() (*fakeStore, *fakePublisher, *TransactionService) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewTransactionService(store, publisher, discardLogger())
	return store, publisher, svc
}

func seedAccount(store *fakeStore, id, userID string) {
	store.accounts[id] = core.Account{ID: id, UserID: userID, Name: "Cash", Kind: core.CashAccount}
}

func TestTransactionService_Create(t *testing.T) {
	store, publisher, svc := newTxFixture()
	seedUser(store, "u1", "Ada")
	seedAccount(store, "acc1", "u1")

	tx, err := svc.Create(context.Background(), "u1", core.Transaction{
		AccountID:  "acc1",
		CategoryID: "cat1",
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 1250},
		Date:       core.NewDate(2025, 6, 15),
		Note:       "groceries",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if tx.UserID != "u1" {
		t.Errorf("Create() UserID = %q, want u1", tx.UserID)
	}
	if _, ok := store.transactions[tx.ID]; !ok {
		t.Error("transaction should be persisted")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Op != amqp.OpCreated || event.ID != tx.ID || event.Date != "2025-06-15" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestTransactionService_Create_Invalid(t *testing.T) {
	store, _, svc := newTxFixture()
	seedUser(store, "u1", "Ada")
	seedAccount(store, "acc1", "u1")

	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{
			name: "zero amount",
			tx: core.Transaction{
				AccountID: "acc1", CategoryID: "c1", Kind: core.Expense,
				Date: core.NewDate(2025, 6, 15),
			},
		},
		{
			name: "negative amount",
			tx: core.Transaction{
				AccountID: "acc1", CategoryID: "c1", Kind: core.Expense,
				Amount: core.Money{Cents: -100}, Date: core.NewDate(2025, 6, 15),
			},
		},
		{
			name: "bad kind",
			tx: core.Transaction{
				AccountID: "acc1", CategoryID: "c1", Kind: "transfer",
				Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 15),
			},
		},
		{
			name: "missing date",
			tx: core.Transaction{
				AccountID: "acc1", CategoryID: "c1", Kind: core.Expense,
				Amount: core.Money{Cents: 100},
			},
		},
		{
			name: "missing account",
			tx: core.Transaction{
				CategoryID: "c1", Kind: core.Expense,
				Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 15),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "u1", tt.tx); err == nil {
				t.Error("Create() should fail")
			}
		})
	}
}

func TestTransactionService_Create_AccountChecks(t *testing.T) {
	store, _, svc := newTxFixture()
	seedUser(store, "u1", "Ada")
	seedUser(store, "u2", "Grace")
	seedAccount(store, "acc-other", "u2")
	store.accounts["acc-archived"] = core.Account{
		ID: "acc-archived", UserID: "u1", Name: "Old", Kind: core.BankAccount, Archived: true,
	}

	valid := core.Transaction{
		CategoryID: "c1", Kind: core.Expense,
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 15),
	}

	t.Run("someone else's account", func(t *testing.T) {
		tx := valid
		tx.AccountID = "acc-other"
		if _, err := svc.Create(context.Background(), "u1", tx); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("archived account", func(t *testing.T) {
		tx := valid
		tx.AccountID = "acc-archived"
		if _, err := svc.Create(context.Background(), "u1", tx); !errors.Is(err, core.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		tx := valid
		tx.AccountID = "nope"
		if _, err := svc.Create(context.Background(), "u1", tx); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactionService_Create_PublishFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, publisher, discardLogger())
	seedUser(store, "u1", "Ada")
	seedAccount(store, "acc1", "u1")

	tx, err := svc.Create(context.Background(), "u1", core.Transaction{
		AccountID: "acc1", CategoryID: "c1", Kind: core.Expense,
		Amount: core.Money{Cents: 500}, Date: core.NewDate(2025, 6, 15),
	})
	if err != nil {
		t.Fatalf("Create() should succeed despite publish failure, got %v", err)
	}
	if _, ok := store.transactions[tx.ID]; !ok {
		t.Error("transaction should be persisted despite publish failure")
	}
}

func TestTransactionService_Delete(t *testing.T) {
	store, publisher, svc := newTxFixture()
	seedUser(store, "u1", "Ada")
	seedUser(store, "u2", "Grace")
	store.transactions["tx1"] = core.Transaction{
		ID: "tx1", UserID: "u1", AccountID: "a", CategoryID: "c",
		Kind: core.Expense, Amount: core.Money{Cents: 100},
		Date: core.NewDate(2025, 6, 15),
	}

	t.Run("not the author", func(t *testing.T) {
		if err := svc.Delete(context.Background(), "u2", "tx1"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("author deletes", func(t *testing.T) {
		if err := svc.Delete(context.Background(), "u1", "tx1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok := store.transactions["tx1"]; ok {
			t.Error("transaction should be gone")
		}
		last := publisher.events[len(publisher.events)-1]
		if last.Op != amqp.OpDeleted || last.ID != "tx1" {
			t.Errorf("unexpected event %+v", last)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if err := svc.Delete(context.Background(), "u1", "nope"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactionService_Get_FamilyVisibility(t *testing.T) {
	store, _, svc := newTxFixture()
	u1 := seedUser(store, "u1", "Ada")
	u2 := seedUser(store, "u2", "Grace")
	seedUser(store, "u3", "Linus")
	u1.FamilyID = "fam1"
	u2.FamilyID = "fam1"
	store.users["u1"] = u1
	store.users["u2"] = u2
	store.transactions["tx1"] = core.Transaction{
		ID: "tx1", UserID: "u1", AccountID: "a", CategoryID: "c",
		Kind: core.Expense, Amount: core.Money{Cents: 100},
		Date: core.NewDate(2025, 6, 15),
	}

	t.Run("family member can read", func(t *testing.T) {
		if _, err := svc.Get(context.Background(), "u2", "tx1"); err != nil {
			t.Errorf("Get() error = %v", err)
		}
	})

	t.Run("outsider cannot", func(t *testing.T) {
		if _, err := svc.Get(context.Background(), "u3", "tx1"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
}

func TestTransactionService_List_FamilyScope(t *testing.T) {
	store, _, svc := newTxFixture()
	u1 := seedUser(store, "u1", "Ada")
	u2 := seedUser(store, "u2", "Grace")
	u1.FamilyID = "fam1"
	u2.FamilyID = "fam1"
	store.users["u1"] = u1
	store.users["u2"] = u2
	store.members["u1"] = core.FamilyMember{UserID: "u1", FamilyID: "fam1", Role: core.RoleOwner}
	store.members["u2"] = core.FamilyMember{UserID: "u2", FamilyID: "fam1", Role: core.RoleMember}

	for i, userID := range []string{"u1", "u2"} {
		id := []string{"tx1", "tx2"}[i]
		store.transactions[id] = core.Transaction{
			ID: id, UserID: userID, AccountID: "a", CategoryID: "c",
			Kind: core.Expense, Amount: core.Money{Cents: 100},
			Date: core.NewDate(2025, 6, 15),
		}
	}

	own, err := svc.List(context.Background(), "u1", false, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("List(own) error = %v", err)
	}
	if len(own) != 1 {
		t.Errorf("own list = %d transactions, want 1", len(own))
	}

	family, err := svc.List(context.Background(), "u1", true, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("List(family) error = %v", err)
	}
	if len(family) != 2 {
		t.Errorf("family list = %d transactions, want 2", len(family))
	}
}

func TestTransactionService_Summary(t *testing.T) {
	store, _, svc := newTxFixture()
	seedUser(store, "u1", "Ada")
	store.categories["cat-food"] = core.Category{ID: "cat-food", UserID: "u1", Name: "Food", Kind: core.Expense}

	add := func(id string, kind core.TransactionKind, cents int64, d core.Date) {
		store.transactions[id] = core.Transaction{
			ID: id, UserID: "u1", AccountID: "a", CategoryID: "cat-food",
			Kind: kind, Amount: core.Money{Cents: cents}, Date: d,
		}
	}
	add("tx1", core.Expense, 3000, core.NewDate(2025, 6, 10))
	add("tx2", core.Expense, 2000, core.NewDate(2025, 6, 20))
	add("tx3", core.Income, 10000, core.NewDate(2025, 6, 1))
	add("tx-prev", core.Expense, 5000, core.NewDate(2025, 5, 10))

	summary, err := svc.Summary(context.Background(), "u1", 2025, 6)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Expenses.Cents != 5000 {
		t.Errorf("Expenses = %d, want 5000", summary.Expenses.Cents)
	}
	if summary.Income.Cents != 10000 {
		t.Errorf("Income = %d, want 10000", summary.Income.Cents)
	}
	if summary.Net.Cents != 5000 {
		t.Errorf("Net = %d, want 5000", summary.Net.Cents)
	}
	if len(summary.ByCategory) != 1 || summary.ByCategory[0].Name != "Food" {
		t.Errorf("ByCategory = %+v", summary.ByCategory)
	}
	// Same spend as May, inside the stable band.
	if summary.Trend.Direction != core.TrendStable {
		t.Errorf("Trend = %s, want stable", summary.Trend.Direction)
	}
}
