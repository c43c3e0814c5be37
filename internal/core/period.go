package core

import (
	"fmt"
	"time"
)

// YearMonth is a reporting period such as 2026-03.
type YearMonth struct {
	Year  int
	Month time.Month
}

// BillingConfig is the part of an account the competence calculator needs.
type BillingConfig struct {
	Type       AccountType
	ClosingDay int
}

func MonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// ParseYearMonth parses YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: invalid period %q", ErrInvalidArgument, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// AddMonths returns the period n months later (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := time.Date(ym.Year, ym.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns the first day of the period.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, int(ym.Month), 1)
}

// Bounds returns the half-open date range [first day, first day of next month).
func (ym YearMonth) Bounds() (Date, Date) {
	return ym.FirstDay(), ym.AddMonths(1).FirstDay()
}

// CompetencePeriod maps a purchase date to the period it is reported under.
//
// Accounts other than credit cards, and credit cards without a closing day,
// report in the purchase month. For a credit card closing on day D, a purchase
// strictly before this month's closing date lands on next month's statement;
// on or after the closing date the current statement is already closed, so it
// lands two months ahead.
func CompetencePeriod(cfg BillingConfig, date Date) YearMonth {
	own := MonthOf(date)
	if cfg.Type != CreditCard || cfg.ClosingDay <= 0 {
		return own
	}
	closing := cfg.ClosingDay
	if closing > 28 {
		closing = 28
	}
	if last := DaysIn(date.Year(), date.Month()); closing > last {
		closing = last
	}
	if date.Day() < closing {
		return own.AddMonths(1)
	}
	return own.AddMonths(2)
}
