package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ledger/internal/core"
)

const entryColumns = `id, owner_id, account_id, category_id, kind, amount_cents, occurred_on, competence,
description, note, payment_method, transfer_group, is_transfer, settled, settled_at, settled_account_id,
recurring_id, plan_id, installment_index`

const insertEntry = `
INSERT INTO entries (owner_id, account_id, category_id, kind, amount_cents, occurred_on, competence,
	description, note, payment_method, transfer_group, is_transfer, settled, settled_at, settled_account_id,
	recurring_id, plan_id, installment_index)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertEntry(ctx context.Context, e core.Entry) (int64, error) {
	var settledAt sql.NullString
	if e.SettledAt != nil {
		settledAt = nullString(e.SettledAt.UTC().Format(time.RFC3339))
	}
	index := sql.NullInt64{Int64: int64(e.InstallmentIndex), Valid: e.PlanID != nil}
	res, err := q.db.ExecContext(ctx, insertEntry,
		e.OwnerID,
		e.AccountID,
		nullInt64(e.CategoryID),
		string(e.Kind),
		e.Amount.Cents,
		e.Date.String(),
		nullPeriod(e.Competence),
		e.Description,
		e.Note,
		e.PaymentMethod,
		nullString(e.TransferGroup),
		boolInt(e.IsTransfer),
		boolInt(e.Settled),
		settledAt,
		nullInt64(e.SettledAccountID),
		nullInt64(e.RecurringID),
		nullInt64(e.PlanID),
		index,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return res.LastInsertId()
}

const getEntry = `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

func (q *Queries) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	e, err := scanEntry(q.db.QueryRowContext(ctx, getEntry, id))
	if err != nil {
		return core.Entry{}, notFound(err, "entry", id)
	}
	return e, nil
}

const updateEntry = `
UPDATE entries
SET account_id = ?, category_id = ?, kind = ?, amount_cents = ?, occurred_on = ?, competence = ?,
	description = ?, note = ?, payment_method = ?, updated_at = ` + nowSQL + `
WHERE id = ?
`

// UpdateEntry rewrites the user-editable fields. Settlement and origin links
// are left untouched.
func (q *Queries) UpdateEntry(ctx context.Context, e core.Entry) error {
	_, err := q.db.ExecContext(ctx, updateEntry,
		e.AccountID,
		nullInt64(e.CategoryID),
		string(e.Kind),
		e.Amount.Cents,
		e.Date.String(),
		nullPeriod(e.Competence),
		e.Description,
		e.Note,
		e.PaymentMethod,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteEntry, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

const deleteTransferGroup = `DELETE FROM entries WHERE transfer_group = ?`

func (q *Queries) DeleteTransferGroup(ctx context.Context, group string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransferGroup, group)
	if err != nil {
		return 0, fmt.Errorf("delete transfer group: %w", err)
	}
	return res.RowsAffected()
}

const markEntrySettled = `
UPDATE entries
SET settled = 1, settled_at = ?, settled_account_id = ?, updated_at = ` + nowSQL + `
WHERE id = ? AND settled = 0
`

// MarkEntrySettled flips the settlement flag only if it is still unset and
// reports whether this call did it.
func (q *Queries) MarkEntrySettled(ctx context.Context, id int64, at time.Time, accountID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, markEntrySettled, at.UTC().Format(time.RFC3339), accountID, id)
	if err != nil {
		return false, fmt.Errorf("mark entry settled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark entry settled: %w", err)
	}
	return n == 1, nil
}

const listEntriesByPlan = `SELECT ` + entryColumns + ` FROM entries WHERE plan_id = ? ORDER BY installment_index`

func (q *Queries) ListEntriesByPlan(ctx context.Context, planID int64) ([]core.Entry, error) {
	return q.listEntries(ctx, listEntriesByPlan, planID)
}

const listEntriesByRecurring = `SELECT ` + entryColumns + ` FROM entries WHERE recurring_id = ? ORDER BY occurred_on, id`

func (q *Queries) ListEntriesByRecurring(ctx context.Context, recurringID int64) ([]core.Entry, error) {
	return q.listEntries(ctx, listEntriesByRecurring, recurringID)
}

const listEntriesByTransferGroup = `SELECT ` + entryColumns + ` FROM entries WHERE transfer_group = ? ORDER BY id`

func (q *Queries) ListEntriesByTransferGroup(ctx context.Context, group string) ([]core.Entry, error) {
	return q.listEntries(ctx, listEntriesByTransferGroup, group)
}

func (q *Queries) listEntries(ctx context.Context, query string, args ...any) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var items []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const deleteFuturePlanEntries = `
DELETE FROM entries WHERE plan_id = ? AND occurred_on > ? AND settled = 0
`

// DeleteFuturePlanEntries removes the plan's unsettled entries dated strictly
// after today.
func (q *Queries) DeleteFuturePlanEntries(ctx context.Context, planID int64, today core.Date) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFuturePlanEntries, planID, today.String())
	if err != nil {
		return 0, fmt.Errorf("delete future plan entries: %w", err)
	}
	return res.RowsAffected()
}

// Rows with a stored competence match on it; legacy rows without one match on
// the occurrence date falling inside the period. A row never satisfies both.
const sumExpensesForPeriod = `
SELECT COALESCE(SUM(amount_cents), 0) FROM entries
WHERE owner_id = ? AND category_id = ? AND kind = 'expense' AND is_transfer = 0
  AND (
    (competence IS NOT NULL AND competence = ?)
    OR
    (competence IS NULL AND occurred_on >= ? AND occurred_on < ?)
  )
`

func (q *Queries) SumExpensesForPeriod(ctx context.Context, ownerID, categoryID int64, period core.YearMonth) (int64, error) {
	from, to := period.Bounds()
	var total int64
	err := q.db.QueryRowContext(ctx, sumExpensesForPeriod, ownerID, categoryID, period.String(), from.String(), to.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func scanEntry(row scanner) (core.Entry, error) {
	var (
		e             core.Entry
		categoryID    sql.NullInt64
		kind          string
		occurredOn    string
		competence    sql.NullString
		transferGroup sql.NullString
		isTransfer    int64
		settled       int64
		settledAt     sql.NullString
		settledAcct   sql.NullInt64
		recurringID   sql.NullInt64
		planID        sql.NullInt64
		index         sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.AccountID, &categoryID, &kind, &e.Amount.Cents, &occurredOn, &competence,
		&e.Description, &e.Note, &e.PaymentMethod, &transferGroup, &isTransfer, &settled, &settledAt, &settledAcct,
		&recurringID, &planID, &index,
	)
	if err != nil {
		return core.Entry{}, err
	}

	if e.Date, err = parseDate(occurredOn); err != nil {
		return core.Entry{}, err
	}
	if e.Competence, err = parseNullPeriod(competence); err != nil {
		return core.Entry{}, err
	}
	if e.SettledAt, err = parseNullTime(settledAt); err != nil {
		return core.Entry{}, err
	}
	e.Kind = core.Kind(kind)
	e.CategoryID = ptrInt64(categoryID)
	e.TransferGroup = transferGroup.String
	e.IsTransfer = isTransfer == 1
	e.Settled = settled == 1
	e.SettledAccountID = ptrInt64(settledAcct)
	e.RecurringID = ptrInt64(recurringID)
	e.PlanID = ptrInt64(planID)
	e.InstallmentIndex = int(index.Int64)
	return e, nil
}
