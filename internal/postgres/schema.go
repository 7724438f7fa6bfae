package postgres

// Schema bootstrap. The statements are idempotent so a fresh pool can run
// them on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    persona    TEXT NOT NULL DEFAULT 'essential',
    family_id  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
    id            TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(id),
    name          TEXT NOT NULL,
    kind          TEXT NOT NULL CHECK (kind IN ('cash', 'bank', 'card')),
    initial_cents BIGINT NOT NULL DEFAULT 0,
    archived      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS categories (
    id        TEXT PRIMARY KEY,
    user_id   TEXT NOT NULL DEFAULT '',
    family_id TEXT NOT NULL DEFAULT '',
    name      TEXT NOT NULL,
    kind      TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
    color     TEXT NOT NULL DEFAULT '',
    icon      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id);
CREATE INDEX IF NOT EXISTS idx_categories_family ON categories(family_id);

CREATE TABLE IF NOT EXISTS transactions (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(id),
    account_id   TEXT NOT NULL REFERENCES accounts(id),
    category_id  TEXT NOT NULL REFERENCES categories(id),
    kind         TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    tx_date      DATE NOT NULL,
    note         TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, tx_date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);

CREATE TABLE IF NOT EXISTS budgets (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL DEFAULT '',
    family_id    TEXT NOT NULL DEFAULT '',
    category_id  TEXT NOT NULL DEFAULT '',
    amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
    period       TEXT NOT NULL CHECK (period IN ('weekly', 'monthly', 'yearly')),
    threshold    DOUBLE PRECISION NOT NULL DEFAULT 0.8,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id);
CREATE INDEX IF NOT EXISTS idx_budgets_family ON budgets(family_id);

CREATE TABLE IF NOT EXISTS families (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    owner_id    TEXT NOT NULL REFERENCES users(id),
    invite_code TEXT NOT NULL UNIQUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS family_members (
    user_id   TEXT PRIMARY KEY REFERENCES users(id),
    family_id TEXT NOT NULL REFERENCES families(id),
    role      TEXT NOT NULL CHECK (role IN ('owner', 'member')),
    joined_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_family_members_family ON family_members(family_id);

CREATE TABLE IF NOT EXISTS budget_snapshots (
    budget_id    TEXT NOT NULL REFERENCES budgets(id),
    window_start DATE NOT NULL,
    spent_cents  BIGINT NOT NULL DEFAULT 0,
    tx_count     BIGINT NOT NULL DEFAULT 0,
    computed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (budget_id, window_start)
);
`
