// Package memstore is a mutex-guarded in-memory ledger.Store. It backs
// DATA_BACKEND=memory for demos and throwaway environments and keeps the
// HTTP tests off disk.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"soldi/internal/core"
	"soldi/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	users        map[string]core.UserProfile
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	families     map[string]core.Family
	members      map[string]core.FamilyMember
	snapshots    map[string]core.BudgetSnapshot
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
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

func (s *Store) Close() error { return nil }

func snapshotKey(budgetID string, windowStart core.Date) string {
	return budgetID + "|" + windowStart.Format("2006-01-02")
}

func (s *Store) CreateUser(_ context.Context, u core.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return core.ErrConflict
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.UserProfile{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ArchiveAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	a.Archived = true
	s.accounts[id] = a
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) CreateCategories(_ context.Context, cs []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		s.categories[c.ID] = c
	}
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID, familyID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if (c.UserID != "" && c.UserID == userID) || (c.FamilyID != "" && c.FamilyID == familyID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) familyUsersLocked(familyID string) map[string]bool {
	users := map[string]bool{}
	for userID, m := range s.members {
		if m.FamilyID == familyID {
			users[userID] = true
		}
	}
	return users
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var familyUsers map[string]bool
	if f.FamilyID != "" {
		familyUsers = s.familyUsersLocked(f.FamilyID)
	}

	var out []core.Transaction
	for _, t := range s.transactions {
		switch {
		case familyUsers != nil:
			if !familyUsers[t.UserID] {
				continue
			}
		case f.UserID != "":
			if t.UserID != f.UserID {
				continue
			}
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Year != 0 {
			if t.Date.Year() != f.Year {
				continue
			}
			if f.Month != 0 && t.Date.Month() != f.Month {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) SumExpenses(_ context.Context, scope ledger.SpendScope) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var familyUsers map[string]bool
	if scope.FamilyID != "" {
		familyUsers = s.familyUsersLocked(scope.FamilyID)
	}

	var cents, count int64
	for _, t := range s.transactions {
		if t.Kind != core.Expense {
			continue
		}
		if familyUsers != nil {
			if !familyUsers[t.UserID] {
				continue
			}
		} else if t.UserID != scope.UserID {
			continue
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

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return core.ErrNotFound
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, owner ledger.BudgetOwner) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if (b.UserID != "" && b.UserID == owner.UserID) || (b.FamilyID != "" && b.FamilyID == owner.FamilyID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateFamily(_ context.Context, f core.Family, owner core.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.families {
		if existing.InviteCode == f.InviteCode {
			return core.ErrConflict
		}
	}
	if _, ok := s.members[owner.UserID]; ok {
		return core.ErrConflict
	}
	s.families[f.ID] = f
	s.members[owner.UserID] = owner
	u := s.users[owner.UserID]
	u.FamilyID = f.ID
	s.users[owner.UserID] = u
	return nil
}

func (s *Store) GetFamily(_ context.Context, id string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[id]
	if !ok {
		return core.Family{}, core.ErrNotFound
	}
	return f, nil
}

func (s *Store) GetFamilyByInvite(_ context.Context, code string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.families {
		if f.InviteCode == code {
			return f, nil
		}
	}
	return core.Family{}, core.ErrNotFound
}

func (s *Store) AddMember(_ context.Context, m core.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.UserID]; ok {
		return core.ErrConflict
	}
	s.members[m.UserID] = m
	u := s.users[m.UserID]
	u.FamilyID = m.FamilyID
	s.users[m.UserID] = u
	return nil
}

func (s *Store) RemoveMember(_ context.Context, familyID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[userID]
	if !ok || m.FamilyID != familyID {
		return core.ErrNotFound
	}
	delete(s.members, userID)
	u := s.users[userID]
	u.FamilyID = ""
	s.users[userID] = u
	return nil
}

func (s *Store) ListMembers(_ context.Context, familyID string) ([]core.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FamilyMember
	for _, m := range s.members {
		if m.FamilyID == familyID {
			if u, ok := s.users[m.UserID]; ok {
				m.Name = u.Name
			}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *Store) UpdateInviteCode(_ context.Context, familyID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[familyID]
	if !ok {
		return core.ErrNotFound
	}
	for id, existing := range s.families {
		if id != familyID && existing.InviteCode == code {
			return core.ErrConflict
		}
	}
	f.InviteCode = code
	s.families[familyID] = f
	return nil
}

func (s *Store) DeleteFamily(_ context.Context, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.families[familyID]; !ok {
		return core.ErrNotFound
	}
	for userID, m := range s.members {
		if m.FamilyID == familyID {
			delete(s.members, userID)
			u := s.users[userID]
			u.FamilyID = ""
			s.users[userID] = u
		}
	}
	delete(s.families, familyID)
	return nil
}

func (s *Store) UpsertSnapshot(_ context.Context, snap core.BudgetSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshotKey(snap.BudgetID, snap.WindowStart)] = snap
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, budgetID string, windowStart core.Date) (core.BudgetSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[snapshotKey(budgetID, windowStart)]
	if !ok {
		return core.BudgetSnapshot{}, core.ErrNotFound
	}
	return snap, nil
}

func (s *Store) ListStaleBudgets(_ context.Context, period core.PeriodKind, windowStart core.Date, olderThan time.Time, limit int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Period != period {
			continue
		}
		snap, ok := s.snapshots[snapshotKey(b.ID, windowStart)]
		if ok && !snap.ComputedAt.Before(olderThan) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
