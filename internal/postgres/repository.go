// Package postgres provides the Postgres-backed ledger store, selected with
// DATA_BACKEND=postgres for multi-device household deployments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"soldi/internal/core"
	"soldi/internal/ledger"
)

// Repository implements ledger.Store on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Repository)(nil)

func NewRepository(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// isConflict reports whether err is a unique violation (SQLSTATE 23505).
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repository) CreateUser(ctx context.Context, u core.UserProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, persona, family_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Persona, u.FamilyID, u.CreatedAt)
	if err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.UserProfile, error) {
	var u core.UserProfile
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, persona, family_id, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Persona, &u.FamilyID, &u.CreatedAt)
	if err != nil {
		return core.UserProfile{}, notFound(err)
	}
	return u, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, user_id, name, kind, initial_cents, archived)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Name, string(a.Kind), a.InitialCents, a.Archived)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	var kind string
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, kind, initial_cents, archived
		FROM accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &kind, &a.InitialCents, &a.Archived)
	if err != nil {
		return core.Account{}, notFound(err)
	}
	a.Kind = core.AccountKind(kind)
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, kind, initial_cents, archived
		FROM accounts WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var kind string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &kind, &a.InitialCents, &a.Archived); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Kind = core.AccountKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) ArchiveAccount(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, user_id, family_id, name, kind, color, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.FamilyID, c.Name, string(c.Kind), c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *Repository) CreateCategories(ctx context.Context, cs []core.Category) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	for _, c := range cs {
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (id, user_id, family_id, name, kind, color, icon)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.UserID, c.FamilyID, c.Name, string(c.Kind), c.Color, c.Icon)
		if err != nil {
			return fmt.Errorf("%w: insert category %q: %v", core.ErrBatchWriteFailed, c.Name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, userID, familyID string) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, family_id, name, kind, color, icon
		FROM categories
		WHERE (user_id = $1 AND user_id != '') OR (family_id = $2 AND family_id != '')
		ORDER BY kind, name`, userID, familyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.UserID, &c.FamilyID, &c.Name, &kind, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, kind, amount_cents, tx_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.AccountID, t.CategoryID, string(t.Kind),
		t.Amount.Cents, t.Date.Time, t.Note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	var date time.Time
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &kind, &t.Amount.Cents, &date, &t.Note)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.TransactionKind(kind)
	t.Date = core.DateOf(date)
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `
		SELECT id, user_id, account_id, category_id, kind, amount_cents, tx_date, note
		FROM transactions WHERE id = $1`, id))
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, account_id, category_id, kind, amount_cents, tx_date, note FROM transactions WHERE TRUE`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case f.FamilyID != "":
		query += ` AND user_id IN (SELECT user_id FROM family_members WHERE family_id = ` + arg(f.FamilyID) + `)`
	case f.UserID != "":
		query += ` AND user_id = ` + arg(f.UserID)
	}
	if f.AccountID != "" {
		query += ` AND account_id = ` + arg(f.AccountID)
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ` + arg(f.CategoryID)
	}
	if f.Kind != "" {
		query += ` AND kind = ` + arg(string(f.Kind))
	}
	if f.Year != 0 {
		w := core.MonthWindow(f.Year, 1)
		w.End = core.NewDate(f.Year+1, 1, 1)
		if f.Month != 0 {
			w = core.MonthWindow(f.Year, f.Month)
		}
		query += ` AND tx_date >= ` + arg(w.Start.Time) + ` AND tx_date < ` + arg(w.End.Time)
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) SumExpenses(ctx context.Context, scope ledger.SpendScope) (int64, int64, error) {
	var cents, count int64
	var err error
	if scope.FamilyID != "" {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
			FROM transactions
			WHERE kind = 'expense'
			  AND user_id IN (SELECT user_id FROM family_members WHERE family_id = $1)
			  AND ($2 = '' OR category_id = $2)
			  AND tx_date >= $3 AND tx_date < $4`,
			scope.FamilyID, scope.CategoryID, scope.Start.Time, scope.End.Time).
			Scan(&cents, &count)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
			FROM transactions
			WHERE kind = 'expense'
			  AND user_id = $1
			  AND ($2 = '' OR category_id = $2)
			  AND tx_date >= $3 AND tx_date < $4`,
			scope.UserID, scope.CategoryID, scope.Start.Time, scope.End.Time).
			Scan(&cents, &count)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("sum expenses: %w", err)
	}
	return cents, count, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, family_id, category_id, amount_cents, period, threshold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.UserID, b.FamilyID, b.CategoryID, b.Amount.Cents,
		string(b.Period), b.Threshold, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func scanBudget(row pgx.Row) (core.Budget, error) {
	var b core.Budget
	var period string
	err := row.Scan(&b.ID, &b.UserID, &b.FamilyID, &b.CategoryID,
		&b.Amount.Cents, &period, &b.Threshold, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.PeriodKind(period)
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(r.pool.QueryRow(ctx, `
		SELECT id, user_id, family_id, category_id, amount_cents, period, threshold, created_at
		FROM budgets WHERE id = $1`, id))
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return b, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE budgets SET category_id = $1, amount_cents = $2, period = $3, threshold = $4
		WHERE id = $5`,
		b.CategoryID, b.Amount.Cents, string(b.Period), b.Threshold, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context, owner ledger.BudgetOwner) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, family_id, category_id, amount_cents, period, threshold, created_at
		FROM budgets
		WHERE (user_id = $1 AND user_id != '') OR (family_id = $2 AND family_id != '')
		ORDER BY created_at`, owner.UserID, owner.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) CreateFamily(ctx context.Context, f core.Family, owner core.FamilyMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO families (id, name, owner_id, invite_code, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Name, f.OwnerID, f.InviteCode, f.CreatedAt); err != nil {
		return fmt.Errorf("%w: insert family: %v", core.ErrBatchWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO family_members (user_id, family_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`,
		owner.UserID, f.ID, string(owner.Role), owner.JoinedAt); err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("%w: insert owner membership: %v", core.ErrBatchWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET family_id = $1 WHERE id = $2`,
		f.ID, owner.UserID); err != nil {
		return fmt.Errorf("%w: set profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func scanFamily(row pgx.Row) (core.Family, error) {
	var f core.Family
	err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.InviteCode, &f.CreatedAt)
	return f, err
}

func (r *Repository) GetFamily(ctx context.Context, id string) (core.Family, error) {
	f, err := scanFamily(r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, invite_code, created_at
		FROM families WHERE id = $1`, id))
	if err != nil {
		return core.Family{}, notFound(err)
	}
	return f, nil
}

func (r *Repository) GetFamilyByInvite(ctx context.Context, code string) (core.Family, error) {
	f, err := scanFamily(r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, invite_code, created_at
		FROM families WHERE invite_code = $1`, code))
	if err != nil {
		return core.Family{}, notFound(err)
	}
	return f, nil
}

func (r *Repository) AddMember(ctx context.Context, m core.FamilyMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO family_members (user_id, family_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`,
		m.UserID, m.FamilyID, string(m.Role), m.JoinedAt); err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("%w: insert membership: %v", core.ErrBatchWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET family_id = $1 WHERE id = $2`,
		m.FamilyID, m.UserID); err != nil {
		return fmt.Errorf("%w: set profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *Repository) RemoveMember(ctx context.Context, familyID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM family_members WHERE family_id = $1 AND user_id = $2`,
		familyID, userID)
	if err != nil {
		return fmt.Errorf("%w: delete membership: %v", core.ErrBatchWriteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET family_id = '' WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("%w: clear profile family: %v", core.ErrBatchWriteFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, familyID string) ([]core.FamilyMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.user_id, m.family_id, u.name, m.role, m.joined_at
		FROM family_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.family_id = $1
		ORDER BY m.joined_at`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var out []core.FamilyMember
	for rows.Next() {
		var m core.FamilyMember
		var role string
		if err := rows.Scan(&m.UserID, &m.FamilyID, &m.Name, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		m.Role = core.FamilyRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateInviteCode(ctx context.Context, familyID, code string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE families SET invite_code = $1 WHERE id = $2`, code, familyID)
	if err != nil {
		if isConflict(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("update invite code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteFamily(ctx context.Context, familyID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrBatchWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE users SET family_id = '' WHERE family_id = $1`, familyID); err != nil {
		return fmt.Errorf("%w: clear profiles: %v", core.ErrBatchWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM family_members WHERE family_id = $1`, familyID); err != nil {
		return fmt.Errorf("%w: clear memberships: %v", core.ErrBatchWriteFailed, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM families WHERE id = $1`, familyID)
	if err != nil {
		return fmt.Errorf("%w: delete family: %v", core.ErrBatchWriteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrBatchWriteFailed, err)
	}
	return nil
}

func (r *Repository) UpsertSnapshot(ctx context.Context, s core.BudgetSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO budget_snapshots (budget_id, window_start, spent_cents, tx_count, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (budget_id, window_start)
		DO UPDATE SET spent_cents = EXCLUDED.spent_cents,
		              tx_count    = EXCLUDED.tx_count,
		              computed_at = EXCLUDED.computed_at`,
		s.BudgetID, s.WindowStart.Time, s.SpentCents, s.TxCount, s.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *Repository) GetSnapshot(ctx context.Context, budgetID string, windowStart core.Date) (core.BudgetSnapshot, error) {
	var s core.BudgetSnapshot
	var start time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT budget_id, window_start, spent_cents, tx_count, computed_at
		FROM budget_snapshots WHERE budget_id = $1 AND window_start = $2`,
		budgetID, windowStart.Time).
		Scan(&s.BudgetID, &start, &s.SpentCents, &s.TxCount, &s.ComputedAt)
	if err != nil {
		return core.BudgetSnapshot{}, notFound(err)
	}
	s.WindowStart = core.DateOf(start)
	return s, nil
}

func (r *Repository) ListStaleBudgets(ctx context.Context, period core.PeriodKind, windowStart core.Date, olderThan time.Time, limit int) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.user_id, b.family_id, b.category_id, b.amount_cents, b.period, b.threshold, b.created_at
		FROM budgets b
		LEFT JOIN budget_snapshots s ON s.budget_id = b.id AND s.window_start = $1
		WHERE b.period = $2 AND (s.budget_id IS NULL OR s.computed_at < $3)
		ORDER BY b.created_at
		LIMIT $4`,
		windowStart.Time, string(period), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
