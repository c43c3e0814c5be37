package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ledger/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

const nowSQL = "strftime('%Y-%m-%dT%H:%M:%SZ', 'now')"

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d core.Date) sql.NullString {
	return nullString(d.String())
}

func nullPeriod(ym *core.YearMonth) sql.NullString {
	if ym == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: ym.String(), Valid: true}
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return d, nil
}

func parseNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return parseDate(s.String)
}

func parseNullPeriod(s sql.NullString) (*core.YearMonth, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	ym, err := core.ParseYearMonth(s.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored period %q: %w", s.String, err)
	}
	return &ym, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored timestamp %q: %w", s.String, err)
	}
	return &t, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
