package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createUser = `
INSERT INTO users (id, name, email, persona, family_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateUserParams struct {
	ID        string
	Name      string
	Email     string
	Persona   string
	FamilyID  string
	CreatedAt time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID, arg.Name, arg.Email, arg.Persona, arg.FamilyID, arg.CreatedAt)
	return err
}

const getUser = `
SELECT id, name, email, persona, family_id, created_at
FROM users WHERE id = ?
`

type UserRow struct {
	ID        string
	Name      string
	Email     string
	Persona   string
	FamilyID  string
	CreatedAt time.Time
}

func (q *Queries) GetUser(ctx context.Context, id string) (UserRow, error) {
	var r UserRow
	err := q.db.QueryRowContext(ctx, getUser, id).
		Scan(&r.ID, &r.Name, &r.Email, &r.Persona, &r.FamilyID, &r.CreatedAt)
	return r, err
}

const setUserFamily = `
UPDATE users SET family_id = ? WHERE id = ?
`

func (q *Queries) SetUserFamily(ctx context.Context, familyID, userID string) error {
	_, err := q.db.ExecContext(ctx, setUserFamily, familyID, userID)
	return err
}

const createAccount = `
INSERT INTO accounts (id, user_id, name, kind, initial_cents, archived)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateAccountParams struct {
	ID           string
	UserID       string
	Name         string
	Kind         string
	InitialCents int64
	Archived     bool
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID, arg.UserID, arg.Name, arg.Kind, arg.InitialCents, arg.Archived)
	return err
}

const getAccount = `
SELECT id, user_id, name, kind, initial_cents, archived
FROM accounts WHERE id = ?
`

type AccountRow struct {
	ID           string
	UserID       string
	Name         string
	Kind         string
	InitialCents int64
	Archived     bool
}

func (q *Queries) GetAccount(ctx context.Context, id string) (AccountRow, error) {
	var r AccountRow
	err := q.db.QueryRowContext(ctx, getAccount, id).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Kind, &r.InitialCents, &r.Archived)
	return r, err
}

const listAccounts = `
SELECT id, user_id, name, kind, initial_cents, archived
FROM accounts WHERE user_id = ? ORDER BY name
`

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]AccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRow
	for rows.Next() {
		var r AccountRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Kind, &r.InitialCents, &r.Archived); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const archiveAccount = `
UPDATE accounts SET archived = 1 WHERE id = ?
`

func (q *Queries) ArchiveAccount(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, archiveAccount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createCategory = `
INSERT INTO categories (id, user_id, family_id, name, kind, color, icon)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateCategoryParams struct {
	ID       string
	UserID   string
	FamilyID string
	Name     string
	Kind     string
	Color    string
	Icon     string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		arg.ID, arg.UserID, arg.FamilyID, arg.Name, arg.Kind, arg.Color, arg.Icon)
	return err
}

const listCategories = `
SELECT id, user_id, family_id, name, kind, color, icon
FROM categories
WHERE (user_id = ? AND user_id != '') OR (family_id = ? AND family_id != '')
ORDER BY kind, name
`

type CategoryRow struct {
	ID       string
	UserID   string
	FamilyID string
	Name     string
	Kind     string
	Color    string
	Icon     string
}

func (q *Queries) ListCategories(ctx context.Context, userID, familyID string) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRow
	for rows.Next() {
		var r CategoryRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.FamilyID, &r.Name, &r.Kind, &r.Color, &r.Icon); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const deleteCategory = `
DELETE FROM categories WHERE id = ?
`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createTransaction = `
INSERT INTO transactions (id, user_id, account_id, category_id, kind, amount_cents, tx_date, note, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	ID          string
	UserID      string
	AccountID   string
	CategoryID  string
	Kind        string
	AmountCents int64
	TxDate      string
	Note        string
	CreatedAt   time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.UserID, arg.AccountID, arg.CategoryID, arg.Kind,
		arg.AmountCents, arg.TxDate, arg.Note, arg.CreatedAt)
	return err
}

const getTransaction = `
SELECT id, user_id, account_id, category_id, kind, amount_cents, tx_date, note
FROM transactions WHERE id = ?
`

type TransactionRow struct {
	ID          string
	UserID      string
	AccountID   string
	CategoryID  string
	Kind        string
	AmountCents int64
	TxDate      string
	Note        string
}

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	var r TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).
		Scan(&r.ID, &r.UserID, &r.AccountID, &r.CategoryID, &r.Kind, &r.AmountCents, &r.TxDate, &r.Note)
	return r, err
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const sumUserExpenses = `
SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
FROM transactions
WHERE kind = 'expense'
  AND user_id = ?
  AND (? = '' OR category_id = ?)
  AND tx_date >= ? AND tx_date < ?
`

type SumExpensesParams struct {
	OwnerID    string
	CategoryID string
	StartDate  string
	EndDate    string
}

func (q *Queries) SumUserExpenses(ctx context.Context, arg SumExpensesParams) (int64, int64, error) {
	var cents, count int64
	err := q.db.QueryRowContext(ctx, sumUserExpenses,
		arg.OwnerID, arg.CategoryID, arg.CategoryID, arg.StartDate, arg.EndDate).
		Scan(&cents, &count)
	return cents, count, err
}

const sumFamilyExpenses = `
SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
FROM transactions
WHERE kind = 'expense'
  AND user_id IN (SELECT user_id FROM family_members WHERE family_id = ?)
  AND (? = '' OR category_id = ?)
  AND tx_date >= ? AND tx_date < ?
`

func (q *Queries) SumFamilyExpenses(ctx context.Context, arg SumExpensesParams) (int64, int64, error) {
	var cents, count int64
	err := q.db.QueryRowContext(ctx, sumFamilyExpenses,
		arg.OwnerID, arg.CategoryID, arg.CategoryID, arg.StartDate, arg.EndDate).
		Scan(&cents, &count)
	return cents, count, err
}

const createBudget = `
INSERT INTO budgets (id, user_id, family_id, category_id, amount_cents, period, threshold, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateBudgetParams struct {
	ID          string
	UserID      string
	FamilyID    string
	CategoryID  string
	AmountCents int64
	Period      string
	Threshold   float64
	CreatedAt   time.Time
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID, arg.UserID, arg.FamilyID, arg.CategoryID,
		arg.AmountCents, arg.Period, arg.Threshold, arg.CreatedAt)
	return err
}

const getBudget = `
SELECT id, user_id, family_id, category_id, amount_cents, period, threshold, created_at
FROM budgets WHERE id = ?
`

type BudgetRow struct {
	ID          string
	UserID      string
	FamilyID    string
	CategoryID  string
	AmountCents int64
	Period      string
	Threshold   float64
	CreatedAt   time.Time
}

func scanBudget(row interface{ Scan(...interface{}) error }) (BudgetRow, error) {
	var r BudgetRow
	err := row.Scan(&r.ID, &r.UserID, &r.FamilyID, &r.CategoryID,
		&r.AmountCents, &r.Period, &r.Threshold, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetBudget(ctx context.Context, id string) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const updateBudget = `
UPDATE budgets SET category_id = ?, amount_cents = ?, period = ?, threshold = ?
WHERE id = ?
`

type UpdateBudgetParams struct {
	ID          string
	CategoryID  string
	AmountCents int64
	Period      string
	Threshold   float64
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget,
		arg.CategoryID, arg.AmountCents, arg.Period, arg.Threshold, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `
DELETE FROM budgets WHERE id = ?
`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listBudgets = `
SELECT id, user_id, family_id, category_id, amount_cents, period, threshold, created_at
FROM budgets
WHERE (user_id = ? AND user_id != '') OR (family_id = ? AND family_id != '')
ORDER BY created_at
`

func (q *Queries) ListBudgets(ctx context.Context, userID, familyID string) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetRow
	for rows.Next() {
		r, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createFamily = `
INSERT INTO families (id, name, owner_id, invite_code, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateFamilyParams struct {
	ID         string
	Name       string
	OwnerID    string
	InviteCode string
	CreatedAt  time.Time
}

func (q *Queries) CreateFamily(ctx context.Context, arg CreateFamilyParams) error {
	_, err := q.db.ExecContext(ctx, createFamily,
		arg.ID, arg.Name, arg.OwnerID, arg.InviteCode, arg.CreatedAt)
	return err
}

const getFamily = `
SELECT id, name, owner_id, invite_code, created_at
FROM families WHERE id = ?
`

const getFamilyByInvite = `
SELECT id, name, owner_id, invite_code, created_at
FROM families WHERE invite_code = ?
`

type FamilyRow struct {
	ID         string
	Name       string
	OwnerID    string
	InviteCode string
	CreatedAt  time.Time
}

func (q *Queries) GetFamily(ctx context.Context, id string) (FamilyRow, error) {
	var r FamilyRow
	err := q.db.QueryRowContext(ctx, getFamily, id).
		Scan(&r.ID, &r.Name, &r.OwnerID, &r.InviteCode, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetFamilyByInvite(ctx context.Context, code string) (FamilyRow, error) {
	var r FamilyRow
	err := q.db.QueryRowContext(ctx, getFamilyByInvite, code).
		Scan(&r.ID, &r.Name, &r.OwnerID, &r.InviteCode, &r.CreatedAt)
	return r, err
}

const insertFamilyMember = `
INSERT INTO family_members (user_id, family_id, role, joined_at)
VALUES (?, ?, ?, ?)
`

type InsertFamilyMemberParams struct {
	UserID   string
	FamilyID string
	Role     string
	JoinedAt time.Time
}

func (q *Queries) InsertFamilyMember(ctx context.Context, arg InsertFamilyMemberParams) error {
	_, err := q.db.ExecContext(ctx, insertFamilyMember,
		arg.UserID, arg.FamilyID, arg.Role, arg.JoinedAt)
	return err
}

const deleteFamilyMember = `
DELETE FROM family_members WHERE family_id = ? AND user_id = ?
`

func (q *Queries) DeleteFamilyMember(ctx context.Context, familyID, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFamilyMember, familyID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listFamilyMembers = `
SELECT m.user_id, m.family_id, u.name, m.role, m.joined_at
FROM family_members m
JOIN users u ON u.id = m.user_id
WHERE m.family_id = ?
ORDER BY m.joined_at
`

type FamilyMemberRow struct {
	UserID   string
	FamilyID string
	Name     string
	Role     string
	JoinedAt time.Time
}

func (q *Queries) ListFamilyMembers(ctx context.Context, familyID string) ([]FamilyMemberRow, error) {
	rows, err := q.db.QueryContext(ctx, listFamilyMembers, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FamilyMemberRow
	for rows.Next() {
		var r FamilyMemberRow
		if err := rows.Scan(&r.UserID, &r.FamilyID, &r.Name, &r.Role, &r.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const updateInviteCode = `
UPDATE families SET invite_code = ? WHERE id = ?
`

func (q *Queries) UpdateInviteCode(ctx context.Context, code, familyID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateInviteCode, code, familyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteFamily = `
DELETE FROM families WHERE id = ?
`

func (q *Queries) DeleteFamily(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFamily, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const clearFamilyMembers = `
DELETE FROM family_members WHERE family_id = ?
`

func (q *Queries) ClearFamilyMembers(ctx context.Context, familyID string) error {
	_, err := q.db.ExecContext(ctx, clearFamilyMembers, familyID)
	return err
}

const clearFamilyFromUsers = `
UPDATE users SET family_id = '' WHERE family_id = ?
`

func (q *Queries) ClearFamilyFromUsers(ctx context.Context, familyID string) error {
	_, err := q.db.ExecContext(ctx, clearFamilyFromUsers, familyID)
	return err
}

const upsertSnapshot = `
INSERT INTO budget_snapshots (budget_id, window_start, spent_cents, tx_count, computed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (budget_id, window_start)
DO UPDATE SET spent_cents = excluded.spent_cents,
              tx_count    = excluded.tx_count,
              computed_at = excluded.computed_at
`

type UpsertSnapshotParams struct {
	BudgetID    string
	WindowStart string
	SpentCents  int64
	TxCount     int64
	ComputedAt  time.Time
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot,
		arg.BudgetID, arg.WindowStart, arg.SpentCents, arg.TxCount, arg.ComputedAt)
	return err
}

const getSnapshot = `
SELECT budget_id, window_start, spent_cents, tx_count, computed_at
FROM budget_snapshots WHERE budget_id = ? AND window_start = ?
`

type SnapshotRow struct {
	BudgetID    string
	WindowStart string
	SpentCents  int64
	TxCount     int64
	ComputedAt  time.Time
}

func (q *Queries) GetSnapshot(ctx context.Context, budgetID, windowStart string) (SnapshotRow, error) {
	var r SnapshotRow
	err := q.db.QueryRowContext(ctx, getSnapshot, budgetID, windowStart).
		Scan(&r.BudgetID, &r.WindowStart, &r.SpentCents, &r.TxCount, &r.ComputedAt)
	return r, err
}

const listStaleBudgets = `
SELECT b.id, b.user_id, b.family_id, b.category_id, b.amount_cents, b.period, b.threshold, b.created_at
FROM budgets b
LEFT JOIN budget_snapshots s ON s.budget_id = b.id AND s.window_start = ?
WHERE b.period = ? AND (s.budget_id IS NULL OR s.computed_at < ?)
ORDER BY b.created_at
LIMIT ?
`

func (q *Queries) ListStaleBudgets(ctx context.Context, period, windowStart string, olderThan time.Time, limit int) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listStaleBudgets, windowStart, period, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetRow
	for rows.Next() {
		r, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
