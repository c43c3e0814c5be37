package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/core"
)

const upsertBudget = `
INSERT INTO budgets (owner_id, category_id, period, ceiling_cents)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id, category_id, period)
DO UPDATE SET ceiling_cents = excluded.ceiling_cents, updated_at = ` + nowSQL + `
`

func (q *Queries) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, b.OwnerID, b.CategoryID, b.Period.String(), b.Ceiling.Cents)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

const getBudgetCeiling = `
SELECT ceiling_cents FROM budgets WHERE owner_id = ? AND category_id = ? AND period = ?
`

// GetBudgetCeiling reports the configured ceiling, or ok=false when no budget
// row exists for the period.
func (q *Queries) GetBudgetCeiling(ctx context.Context, ownerID, categoryID int64, period core.YearMonth) (int64, bool, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, getBudgetCeiling, ownerID, categoryID, period.String()).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get budget ceiling: %w", err)
	}
	return cents, true, nil
}

const listBudgets = `
SELECT id, owner_id, category_id, period, ceiling_cents FROM budgets
WHERE owner_id = ? AND period = ?
ORDER BY category_id
`

func (q *Queries) ListBudgets(ctx context.Context, ownerID int64, period core.YearMonth) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, ownerID, period.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var items []core.Budget
	for rows.Next() {
		var (
			b      core.Budget
			period string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &period, &b.Ceiling.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Period, err = core.ParseYearMonth(period); err != nil {
			return nil, fmt.Errorf("parse stored period %q: %w", period, err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
