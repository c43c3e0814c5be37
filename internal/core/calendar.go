package core

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's own location for the
// day boundary.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrInvalidArgument, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidArgument)
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves d by n months, clamping the day to the end of shorter
// months instead of spilling into the following one (Jan 31 + 1 = Feb 28/29).
func AddMonths(d Date, n int) Date {
	return AddMonthsAnchored(d, n, d.Day())
}

// AddMonthsAnchored moves d by n months and places the result on anchorDay,
// clamped to the target month's length. Anchoring on the original day keeps
// a monthly cycle from drifting after a short month (Jan 31, Feb 29, Mar 31).
func AddMonthsAnchored(d Date, n int, anchorDay int) Date {
	y, m, _ := d.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := anchorDay
	if last := DaysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(target.Year(), int(target.Month()), day)
}
