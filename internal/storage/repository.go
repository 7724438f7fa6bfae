package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soldi/internal/core"
	"soldi/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository implements ledger.Store on a local SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatDate(d core.Date) string {
	return d.Format(dateLayout)
}

func parseDate(s string) core.Date {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// isConflict reports whether err is a primary-key or unique violation.
func isConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.UserProfile) error {
	err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Persona:   u.Persona,
		FamilyID:  u.FamilyID,
		CreatedAt: u.CreatedAt,
	})
	if err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.UserProfile, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.UserProfile{}, notFound(err)
	}
	return core.UserProfile{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Persona:   row.Persona,
		FamilyID:  row.FamilyID,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	err := r.queries.CreateAccount(ctx, CreateAccountParams{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		Kind:         string(a.Kind),
		InitialCents: a.InitialCents,
		Archived:     a.Archived,
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func accountFromRow(row AccountRow) core.Account {
	return core.Account{
		ID:           row.ID,
		UserID:       row.UserID,
		Name:         row.Name,
		Kind:         core.AccountKind(row.Kind),
		InitialCents: row.InitialCents,
		Archived:     row.Archived,
	}
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, notFound(err)
	}
	return accountFromRow(row), nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]core.Account, len(rows))
	for i, row := range rows {
		accounts[i] = accountFromRow(row)
	}
	return accounts, nil
}

func (r *SQLiteRepository) ArchiveAccount(ctx context.Context, id string) error {
	n, err := r.queries.ArchiveAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("archive account: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		ID:       c.ID,
		UserID:   c.UserID,
		FamilyID: c.FamilyID,
		Name:     c.Name,
		Kind:     string(c.Kind),
		Color:    c.Color,
		Icon:     c.Icon,
	})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// CreateCategories inserts a persona bundle atomically: either the whole
// bundle lands or none of it does.
func (r *SQLiteRepository) CreateCategories(ctx context.Context, cs []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	for _, c := range cs {
		err := qtx.CreateCategory(ctx, CreateCategoryParams{
			ID:       c.ID,
			UserID:   c.UserID,
			FamilyID: c.FamilyID,
			Name:     c.Name,
			Kind:     string(c.Kind),
			Color:    c.Color,
			Icon:     c.Icon,
		})
		if err != nil {
			return fmt.Errorf("%w: insert category %q: %v", core.ErrBatchWriteFailed, c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID, familyID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID, familyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]core.Category, len(rows))
	for i, row := range rows {
		categories[i] = core.Category{
			ID:       row.ID,
			UserID:   row.UserID,
			FamilyID: row.FamilyID,
			Name:     row.Name,
			Kind:     core.TransactionKind(row.Kind),
			Color:    row.Color,
			Icon:     row.Icon,
		}
	}
	return categories, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          t.ID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		TxDate:      formatDate(t.Date),
		Note:        t.Note,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", formatDate(t.Date))
	return nil
}

func transactionFromRow(row TransactionRow) core.Transaction {
	return core.Transaction{
		ID:         row.ID,
		UserID:     row.UserID,
		AccountID:  row.AccountID,
		CategoryID: row.CategoryID,
		Kind:       core.TransactionKind(row.Kind),
		Amount:     core.Money{Cents: row.AmountCents},
		Date:       parseDate(row.TxDate),
		Note:       row.Note,
	}
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return transactionFromRow(row), nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListTransactions builds the filter dynamically; every clause is a bound
// parameter.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, account_id, category_id, kind, amount_cents, tx_date, note FROM transactions`
	var where []string
	var args []interface{}

	switch {
	case f.FamilyID != "":
		where = append(where, "user_id IN (SELECT user_id FROM family_members WHERE family_id = ?)")
		args = append(args, f.FamilyID)
	case f.UserID != "":
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Year != 0 {
		w := core.MonthWindow(f.Year, 1)
		w.End = core.NewDate(f.Year+1, 1, 1)
		if f.Month != 0 {
			w = core.MonthWindow(f.Year, f.Month)
		}
		where = append(where, "tx_date >= ? AND tx_date < ?")
		args = append(args, formatDate(w.Start), formatDate(w.End))
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY tx_date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var row TransactionRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.AccountID, &row.CategoryID,
			&row.Kind, &row.AmountCents, &row.TxDate, &row.Note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, transactionFromRow(row))
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, scope ledger.SpendScope) (int64, int64, error) {
	params := SumExpensesParams{
		CategoryID: scope.CategoryID,
		StartDate:  formatDate(scope.Start),
		EndDate:    formatDate(scope.End),
	}
	if scope.FamilyID != "" {
		params.OwnerID = scope.FamilyID
		cents, count, err := r.queries.SumFamilyExpenses(ctx, params)
		if err != nil {
			return 0, 0, fmt.Errorf("sum family expenses: %w", err)
		}
		return cents, count, nil
	}
	params.OwnerID = scope.UserID
	cents, count, err := r.queries.SumUserExpenses(ctx, params)
	if err != nil {
		return 0, 0, fmt.Errorf("sum user expenses: %w", err)
	}
	return cents, count, nil
}

func budgetFromRow(row BudgetRow) core.Budget {
	return core.Budget{
		ID:         row.ID,
		UserID:     row.UserID,
		FamilyID:   row.FamilyID,
		CategoryID: row.CategoryID,
		Amount:     core.Money{Cents: row.AmountCents},
		Period:     core.PeriodKind(row.Period),
		Threshold:  row.Threshold,
		CreatedAt:  row.CreatedAt,
	}
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		ID:          b.ID,
		UserID:      b.UserID,
		FamilyID:    b.FamilyID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		Threshold:   b.Threshold,
		CreatedAt:   b.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return budgetFromRow(row), nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	n, err := r.queries.UpdateBudget(ctx, UpdateBudgetParams{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		Threshold:   b.Threshold,
	})
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	n, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, owner ledger.BudgetOwner) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, owner.UserID, owner.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, len(rows))
	for i, row := range rows {
		budgets[i] = budgetFromRow(row)
	}
	return budgets, nil
}

// CreateFamily writes the family, the owner membership and the profile
// back-reference in one transaction. Any failure rolls back all three.
func (r *SQLiteRepository) CreateFamily(ctx context.Context, f core.Family, owner core.FamilyMember) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.CreateFamily(ctx, CreateFamilyParams{
		ID:         f.ID,
		Name:       f.Name,
		OwnerID:    f.OwnerID,
		InviteCode: f.InviteCode,
		CreatedAt:  f.CreatedAt,
	}); err != nil {
		return fmt.Errorf("%w: insert family: %v", core.ErrBatchWriteFailed, err)
	}
	if err := qtx.InsertFamilyMember(ctx, InsertFamilyMemberParams{
		UserID:   owner.UserID,
		FamilyID: f.ID,
		Role:     string(owner.Role),
		JoinedAt: owner.JoinedAt,
	}); err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("%w: insert owner membership: %v", core.ErrBatchWriteFailed, err)
	}
	if err := qtx.SetUserFamily(ctx, f.ID, owner.UserID); err != nil {
		return fmt.Errorf("%w: set profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}

	slog.InfoContext(ctx, "Family created",
		"family_id", f.ID,
		"owner_id", f.OwnerID)
	return nil
}

func familyFromRow(row FamilyRow) core.Family {
	return core.Family{
		ID:         row.ID,
		Name:       row.Name,
		OwnerID:    row.OwnerID,
		InviteCode: row.InviteCode,
		CreatedAt:  row.CreatedAt,
	}
}

func (r *SQLiteRepository) GetFamily(ctx context.Context, id string) (core.Family, error) {
	row, err := r.queries.GetFamily(ctx, id)
	if err != nil {
		return core.Family{}, notFound(err)
	}
	return familyFromRow(row), nil
}

func (r *SQLiteRepository) GetFamilyByInvite(ctx context.Context, code string) (core.Family, error) {
	row, err := r.queries.GetFamilyByInvite(ctx, code)
	if err != nil {
		return core.Family{}, notFound(err)
	}
	return familyFromRow(row), nil
}

// AddMember inserts the membership and stamps the user profile atomically.
// The primary key on family_members.user_id makes a double join a conflict.
func (r *SQLiteRepository) AddMember(ctx context.Context, m core.FamilyMember) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.InsertFamilyMember(ctx, InsertFamilyMemberParams{
		UserID:   m.UserID,
		FamilyID: m.FamilyID,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt,
	}); err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("%w: insert membership: %v", core.ErrBatchWriteFailed, err)
	}
	if err := qtx.SetUserFamily(ctx, m.FamilyID, m.UserID); err != nil {
		return fmt.Errorf("%w: set profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveMember(ctx context.Context, familyID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	n, err := qtx.DeleteFamilyMember(ctx, familyID, userID)
	if err != nil {
		return fmt.Errorf("%w: delete membership: %v", core.ErrBatchWriteFailed, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	if err := qtx.SetUserFamily(ctx, "", userID); err != nil {
		return fmt.Errorf("%w: clear profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, familyID string) ([]core.FamilyMember, error) {
	rows, err := r.queries.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	members := make([]core.FamilyMember, len(rows))
	for i, row := range rows {
		members[i] = core.FamilyMember{
			UserID:   row.UserID,
			FamilyID: row.FamilyID,
			Name:     row.Name,
			Role:     core.FamilyRole(row.Role),
			JoinedAt: row.JoinedAt,
		}
	}
	return members, nil
}

func (r *SQLiteRepository) UpdateInviteCode(ctx context.Context, familyID, code string) error {
	n, err := r.queries.UpdateInviteCode(ctx, code, familyID)
	if err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("update invite code: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteFamily removes the family, its memberships and every profile
// back-reference in one transaction.
func (r *SQLiteRepository) DeleteFamily(ctx context.Context, familyID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.ClearFamilyFromUsers(ctx, familyID); err != nil {
		return fmt.Errorf("%w: clear profiles: %v", core.ErrBatchWriteFailed, err)
	}
	if err := qtx.ClearFamilyMembers(ctx, familyID); err != nil {
		return fmt.Errorf("%w: clear memberships: %v", core.ErrBatchWriteFailed, err)
	}
	n, err := qtx.DeleteFamily(ctx, familyID)
	if err != nil {
		return fmt.Errorf("%w: delete family: %v", core.ErrBatchWriteFailed, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, s core.BudgetSnapshot) error {
	err := r.queries.UpsertSnapshot(ctx, UpsertSnapshotParams{
		BudgetID:    s.BudgetID,
		WindowStart: formatDate(s.WindowStart),
		SpentCents:  s.SpentCents,
		TxCount:     s.TxCount,
		ComputedAt:  s.ComputedAt,
	})
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, budgetID string, windowStart core.Date) (core.BudgetSnapshot, error) {
	row, err := r.queries.GetSnapshot(ctx, budgetID, formatDate(windowStart))
	if err != nil {
		return core.BudgetSnapshot{}, notFound(err)
	}
	return core.BudgetSnapshot{
		BudgetID:    row.BudgetID,
		WindowStart: parseDate(row.WindowStart),
		SpentCents:  row.SpentCents,
		TxCount:     row.TxCount,
		ComputedAt:  row.ComputedAt,
	}, nil
}

func (r *SQLiteRepository) ListStaleBudgets(ctx context.Context, period core.PeriodKind, windowStart core.Date, olderThan time.Time, limit int) ([]core.Budget, error) {
	rows, err := r.queries.ListStaleBudgets(ctx, string(period), formatDate(windowStart), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale budgets: %w", err)
	}
	budgets := make([]core.Budget, len(rows))
	for i, row := range rows {
		budgets[i] = budgetFromRow(row)
	}
	return budgets, nil
}
