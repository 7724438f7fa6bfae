package services

import (
	"context"
	"sort"
	"time"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// fakeStore is an in-memory ledger.Store for service tests.
type fakeStore struct {
	users        map[string]core.UserProfile
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	families     map[string]core.Family
	members      map[string]core.FamilyMember // keyed by user ID
	snapshots    map[string]core.BudgetSnapshot

	failSumExpenses error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]core.UserProfile{},
		accounts:     map[string]core.Account{},
		categories:   map[string]core.Category{},
		transactions: map[string]core.Transaction{},
		budgets:      map[string]core.Budget{},
		families:     map[string]core.Family{},
		members:      map[string]core.FamilyMember{},
		snapshots:    map[string]core.BudgetSnapshot{},
	}
}

func snapshotKey(budgetID string, windowStart core.Date) string {
	return budgetID + "|" + windowStart.Format("2006-01-02")
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, u core.UserProfile) error {
	if _, ok := f.users[u.ID]; ok {
		return core.ErrConflict
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (core.UserProfile, error) {
	u, ok := f.users[id]
	if !ok {
		return core.UserProfile{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateAccount(_ context.Context, a core.Account) error {
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	var out []core.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ArchiveAccount(_ context.Context, id string) error {
	a, ok := f.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	a.Archived = true
	f.accounts[id] = a
	return nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) CreateCategories(_ context.Context, cs []core.Category) error {
	for _, c := range cs {
		f.categories[c.ID] = c
	}
	return nil
}

func (f *fakeStore) ListCategories(_ context.Context, userID, familyID string) ([]core.Category, error) {
	var out []core.Category
	for _, c := range f.categories {
		if (c.UserID != "" && c.UserID == userID) || (c.FamilyID != "" && c.FamilyID == familyID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	if _, ok := f.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) familyUsers(familyID string) map[string]bool {
	users := map[string]bool{}
	for userID, m := range f.members {
		if m.FamilyID == familyID {
			users[userID] = true
		}
	}
	return users
}

func (f *fakeStore) ListTransactions(_ context.Context, filter ledger.TransactionFilter) ([]core.Transaction, error) {
	var familyUsers map[string]bool
	if filter.FamilyID != "" {
		familyUsers = f.familyUsers(filter.FamilyID)
	}

	var out []core.Transaction
	for _, t := range f.transactions {
		switch {
		case familyUsers != nil:
			if !familyUsers[t.UserID] {
				continue
			}
		case filter.UserID != "":
			if t.UserID != filter.UserID {
				continue
			}
		}
		if filter.AccountID != "" && t.AccountID != filter.AccountID {
			continue
		}
		if filter.CategoryID != "" && t.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Year != 0 {
			if t.Date.Year() != filter.Year {
				continue
			}
			if filter.Month != 0 && t.Date.Month() != filter.Month {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) SumExpenses(_ context.Context, scope ledger.SpendScope) (int64, int64, error) {
	if f.failSumExpenses != nil {
		return 0, 0, f.failSumExpenses
	}
	var familyUsers map[string]bool
	if scope.FamilyID != "" {
		familyUsers = f.familyUsers(scope.FamilyID)
	}

	var cents, count int64
	for _, t := range f.transactions {
		if t.Kind != core.Expense {
			continue
		}
		switch {
		case familyUsers != nil:
			if !familyUsers[t.UserID] {
				continue
			}
		default:
			if t.UserID != scope.UserID {
				continue
			}
		}
		if scope.CategoryID != "" && t.CategoryID != scope.CategoryID {
			continue
		}
		if !t.Date.In(scope.Start, scope.End) {
			continue
		}
		cents += t.Amount.Cents
		count++
	}
	return cents, count, nil
}

func (f *fakeStore) CreateBudget(_ context.Context, b core.Budget) error {
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeStore) GetBudget(_ context.Context, id string) (core.Budget, error) {
	b, ok := f.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateBudget(_ context.Context, b core.Budget) error {
	if _, ok := f.budgets[b.ID]; !ok {
		return core.ErrNotFound
	}
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeStore) DeleteBudget(_ context.Context, id string) error {
	if _, ok := f.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.budgets, id)
	return nil
}

func (f *fakeStore) ListBudgets(_ context.Context, owner ledger.BudgetOwner) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range f.budgets {
		if (b.UserID != "" && b.UserID == owner.UserID) || (b.FamilyID != "" && b.FamilyID == owner.FamilyID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateFamily(_ context.Context, fam core.Family, owner core.FamilyMember) error {
	for _, existing := range f.families {
		if existing.InviteCode == fam.InviteCode {
			return core.ErrConflict
		}
	}
	if _, ok := f.members[owner.UserID]; ok {
		return core.ErrConflict
	}
	f.families[fam.ID] = fam
	f.members[owner.UserID] = owner
	u := f.users[owner.UserID]
	u.FamilyID = fam.ID
	f.users[owner.UserID] = u
	return nil
}

func (f *fakeStore) GetFamily(_ context.Context, id string) (core.Family, error) {
	fam, ok := f.families[id]
	if !ok {
		return core.Family{}, core.ErrNotFound
	}
	return fam, nil
}

func (f *fakeStore) GetFamilyByInvite(_ context.Context, code string) (core.Family, error) {
	for _, fam := range f.families {
		if fam.InviteCode == code {
			return fam, nil
		}
	}
	return core.Family{}, core.ErrNotFound
}

func (f *fakeStore) AddMember(_ context.Context, m core.FamilyMember) error {
	if _, ok := f.members[m.UserID]; ok {
		return core.ErrConflict
	}
	f.members[m.UserID] = m
	u := f.users[m.UserID]
	u.FamilyID = m.FamilyID
	f.users[m.UserID] = u
	return nil
}

func (f *fakeStore) RemoveMember(_ context.Context, familyID, userID string) error {
	m, ok := f.members[userID]
	if !ok || m.FamilyID != familyID {
		return core.ErrNotFound
	}
	delete(f.members, userID)
	u := f.users[userID]
	u.FamilyID = ""
	f.users[userID] = u
	return nil
}

func (f *fakeStore) ListMembers(_ context.Context, familyID string) ([]core.FamilyMember, error) {
	var out []core.FamilyMember
	for _, m := range f.members {
		if m.FamilyID == familyID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeStore) UpdateInviteCode(_ context.Context, familyID, code string) error {
	fam, ok := f.families[familyID]
	if !ok {
		return core.ErrNotFound
	}
	for id, existing := range f.families {
		if id != familyID && existing.InviteCode == code {
			return core.ErrConflict
		}
	}
	fam.InviteCode = code
	f.families[familyID] = fam
	return nil
}

func (f *fakeStore) DeleteFamily(_ context.Context, familyID string) error {
	if _, ok := f.families[familyID]; !ok {
		return core.ErrNotFound
	}
	for userID, m := range f.members {
		if m.FamilyID == familyID {
			delete(f.members, userID)
			u := f.users[userID]
			u.FamilyID = ""
			f.users[userID] = u
		}
	}
	delete(f.families, familyID)
	return nil
}

func (f *fakeStore) UpsertSnapshot(_ context.Context, s core.BudgetSnapshot) error {
	f.snapshots[snapshotKey(s.BudgetID, s.WindowStart)] = s
	return nil
}

func (f *fakeStore) GetSnapshot(_ context.Context, budgetID string, windowStart core.Date) (core.BudgetSnapshot, error) {
	s, ok := f.snapshots[snapshotKey(budgetID, windowStart)]
	if !ok {
		return core.BudgetSnapshot{}, core.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListStaleBudgets(_ context.Context, period core.PeriodKind, windowStart core.Date, olderThan time.Time, limit int) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range f.budgets {
		if b.Period != period {
			continue
		}
		s, ok := f.snapshots[snapshotKey(b.ID, windowStart)]
		if ok && !s.ComputedAt.Before(olderThan) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ ledger.Store = (*fakeStore)(nil)

// fakePublisher records published events.
type fakePublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func discardLogger() *log.Logger {
	return log.New(log.Config{Level: 10, Component: "test"})
}

// seedUser registers a profile directly in the store.
func seedUser(f *fakeStore, id, name string) core.UserProfile {
	u := core.UserProfile{
		ID:        id,
		Name:      name,
		Persona:   "essential",
		CreatedAt: time.Now().UTC(),
	}
	f.users[id] = u
	return u
}

