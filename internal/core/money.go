// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents. Decimal strings coming from the
// outside are parsed with shopspring/decimal and rounded half away from
// zero to two places before conversion.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// the third decimal place half away from zero. Zero, negative and malformed
// values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}

// ParseMoney is ParseDecimalToCents returning a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromDecimal rounds d to cents. Only strictly positive results are accepted.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Mul(hundred)
	if !cents.IsPositive() || cents.GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// SplitCents divides total into n installments whose sum is exactly total.
// The first n-1 installments get the integer share and the last one absorbs
// the remainder.
func SplitCents(total Money, n int) ([]Money, error) {
	if n < MinInstallments {
		return nil, fmt.Errorf("%w: installment count must be at least %d", ErrInvalidArgument, MinInstallments)
	}
	if err := total.Validate(); err != nil {
		return nil, err
	}
	base := total.Cents / int64(n)
	if base == 0 {
		return nil, fmt.Errorf("%w: %s cannot be split into %d positive installments", ErrInvalidArgument, total, n)
	}
	remainder := total.Cents % int64(n)

	parts := make([]Money, n)
	for i := range parts {
		parts[i] = Money{Cents: base}
	}
	parts[n-1].Cents += remainder
	return parts, nil
}
