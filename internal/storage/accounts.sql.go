package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/core"
)

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

const createAccount = `
INSERT INTO accounts (owner_id, name, type, closing_day)
VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	closing := sql.NullInt64{Int64: int64(a.ClosingDay), Valid: a.ClosingDay != 0}
	res, err := q.db.ExecContext(ctx, createAccount, a.OwnerID, a.Name, string(a.Type), closing)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

const getAccount = `
SELECT id, owner_id, name, type, closing_day FROM accounts WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccount, id))
	if err != nil {
		return core.Account{}, notFound(err, "account", id)
	}
	return a, nil
}

const listAccounts = `
SELECT id, owner_id, name, type, closing_day FROM accounts WHERE owner_id = ? ORDER BY id
`

func (q *Queries) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var items []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const updateAccount = `
UPDATE accounts SET name = ?, type = ?, closing_day = ?, updated_at = ` + nowSQL + `
WHERE id = ?
`

func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	closing := sql.NullInt64{Int64: int64(a.ClosingDay), Valid: a.ClosingDay != 0}
	res, err := q.db.ExecContext(ctx, updateAccount, a.Name, string(a.Type), closing, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", a.ID, core.ErrNotFound)
	}
	return nil
}

func scanAccount(row scanner) (core.Account, error) {
	var (
		a       core.Account
		typ     string
		closing sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &closing); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	if closing.Valid {
		a.ClosingDay = int(closing.Int64)
	}
	return a, nil
}

const createCategory = `
INSERT INTO categories (owner_id, name, kind, is_system) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCategory, c.OwnerID, c.Name, string(c.Kind), boolInt(c.IsSystem))
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

const getCategory = `
SELECT id, owner_id, name, kind, is_system FROM categories WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var (
		c        core.Category
		kind     string
		isSystem int64
	)
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.OwnerID, &c.Name, &kind, &isSystem)
	if err != nil {
		return core.Category{}, notFound(err, "category", id)
	}
	c.Kind = core.Kind(kind)
	c.IsSystem = isSystem == 1
	return c, nil
}

const insertSystemCategory = `
INSERT INTO categories (owner_id, name, kind, is_system) VALUES (?, ?, ?, 1)
ON CONFLICT (owner_id, kind, name) DO NOTHING
`

const selectCategoryID = `
SELECT id FROM categories WHERE owner_id = ? AND kind = ? AND name = ?
`

// UpsertSystemCategory returns the id of the (owner, kind, name) category,
// creating it on first use. The unique index makes concurrent first use safe.
func (q *Queries) UpsertSystemCategory(ctx context.Context, ownerID int64, kind core.Kind, name string) (int64, error) {
	if _, err := q.db.ExecContext(ctx, insertSystemCategory, ownerID, name, string(kind)); err != nil {
		return 0, fmt.Errorf("upsert system category: %w", err)
	}
	var id int64
	if err := q.db.QueryRowContext(ctx, selectCategoryID, ownerID, string(kind), name).Scan(&id); err != nil {
		return 0, fmt.Errorf("select system category: %w", err)
	}
	return id, nil
}
