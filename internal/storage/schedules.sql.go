package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ledger/internal/core"
)

const createRecurring = `
INSERT INTO recurring_definitions (owner_id, account_id, category_id, kind, amount_cents, description,
	frequency, interval_n, start_date, end_date, next_due_date, auto_post, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateRecurring(ctx context.Context, rd core.RecurringDefinition) (int64, error) {
	res, err := q.db.ExecContext(ctx, createRecurring,
		rd.OwnerID,
		rd.AccountID,
		nullInt64(rd.CategoryID),
		string(rd.Kind),
		rd.Amount.Cents,
		rd.Description,
		string(rd.Frequency),
		rd.Interval,
		rd.StartDate.String(),
		nullDate(rd.EndDate),
		rd.NextDue.String(),
		boolInt(rd.AutoPost),
		boolInt(rd.Active),
	)
	if err != nil {
		return 0, fmt.Errorf("insert recurring definition: %w", err)
	}
	return res.LastInsertId()
}

const recurringColumns = `id, owner_id, account_id, category_id, kind, amount_cents, description,
frequency, interval_n, start_date, end_date, next_due_date, auto_post, active`

const getRecurring = `SELECT ` + recurringColumns + ` FROM recurring_definitions WHERE id = ?`

func (q *Queries) GetRecurring(ctx context.Context, id int64) (core.RecurringDefinition, error) {
	rd, err := scanRecurring(q.db.QueryRowContext(ctx, getRecurring, id))
	if err != nil {
		return core.RecurringDefinition{}, notFound(err, "recurring definition", id)
	}
	return rd, nil
}

const listDueRecurring = `
SELECT ` + recurringColumns + ` FROM recurring_definitions
WHERE active = 1 AND auto_post = 1 AND next_due_date <= ? AND id > ?
ORDER BY id
LIMIT ?
`

// ListDueRecurring pages through due definitions by id so that a definition
// which keeps failing is not fetched again within the same run.
func (q *Queries) ListDueRecurring(ctx context.Context, asOf core.Date, afterID int64, limit int) ([]core.RecurringDefinition, error) {
	rows, err := q.db.QueryContext(ctx, listDueRecurring, asOf.String(), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list due recurring definitions: %w", err)
	}
	defer rows.Close()

	var items []core.RecurringDefinition
	for rows.Next() {
		rd, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring definition: %w", err)
		}
		items = append(items, rd)
	}
	return items, rows.Err()
}

const advanceRecurring = `
UPDATE recurring_definitions
SET next_due_date = ?, active = ?, updated_at = ` + nowSQL + `
WHERE id = ? AND next_due_date = ? AND active = 1
`

// AdvanceRecurring moves the cursor from expected to next. It is a
// compare-and-swap: if another writer already moved the cursor, nothing is
// updated and core.ErrConflict is returned.
func (q *Queries) AdvanceRecurring(ctx context.Context, id int64, expected, next core.Date, active bool) error {
	res, err := q.db.ExecContext(ctx, advanceRecurring, next.String(), boolInt(active), id, expected.String())
	if err != nil {
		return fmt.Errorf("advance recurring definition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance recurring definition: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("recurring definition %d cursor moved from %s: %w", id, expected, core.ErrConflict)
	}
	return nil
}

func scanRecurring(row scanner) (core.RecurringDefinition, error) {
	var (
		rd         core.RecurringDefinition
		categoryID sql.NullInt64
		kind       string
		frequency  string
		startDate  string
		endDate    sql.NullString
		nextDue    string
		autoPost   int64
		active     int64
	)
	err := row.Scan(&rd.ID, &rd.OwnerID, &rd.AccountID, &categoryID, &kind, &rd.Amount.Cents, &rd.Description,
		&frequency, &rd.Interval, &startDate, &endDate, &nextDue, &autoPost, &active)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	if rd.StartDate, err = parseDate(startDate); err != nil {
		return core.RecurringDefinition{}, err
	}
	if rd.EndDate, err = parseNullDate(endDate); err != nil {
		return core.RecurringDefinition{}, err
	}
	if rd.NextDue, err = parseDate(nextDue); err != nil {
		return core.RecurringDefinition{}, err
	}
	rd.CategoryID = ptrInt64(categoryID)
	rd.Kind = core.Kind(kind)
	rd.Frequency = core.Frequency(frequency)
	rd.AutoPost = autoPost == 1
	rd.Active = active == 1
	return rd, nil
}

const createPlan = `
INSERT INTO installment_plans (owner_id, account_id, category_id, description, total_cents,
	installment_count, first_due_date, active)
VALUES (?, ?, ?, ?, ?, ?, ?, 1)
`

func (q *Queries) CreatePlan(ctx context.Context, p core.InstallmentPlan) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPlan,
		p.OwnerID,
		p.AccountID,
		nullInt64(p.CategoryID),
		p.Description,
		p.Total.Cents,
		p.Count,
		p.FirstDue.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert installment plan: %w", err)
	}
	return res.LastInsertId()
}

const getPlan = `
SELECT id, owner_id, account_id, category_id, description, total_cents, installment_count, first_due_date, active
FROM installment_plans WHERE id = ?
`

func (q *Queries) GetPlan(ctx context.Context, id int64) (core.InstallmentPlan, error) {
	var (
		p          core.InstallmentPlan
		categoryID sql.NullInt64
		firstDue   string
		active     int64
	)
	err := q.db.QueryRowContext(ctx, getPlan, id).Scan(&p.ID, &p.OwnerID, &p.AccountID, &categoryID,
		&p.Description, &p.Total.Cents, &p.Count, &firstDue, &active)
	if err != nil {
		return core.InstallmentPlan{}, notFound(err, "installment plan", id)
	}
	if p.FirstDue, err = parseDate(firstDue); err != nil {
		return core.InstallmentPlan{}, err
	}
	p.CategoryID = ptrInt64(categoryID)
	p.Active = active == 1
	return p, nil
}

const deactivatePlan = `
UPDATE installment_plans SET active = 0, updated_at = ` + nowSQL + ` WHERE id = ?
`

func (q *Queries) DeactivatePlan(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deactivatePlan, id); err != nil {
		return fmt.Errorf("deactivate installment plan: %w", err)
	}
	return nil
}
