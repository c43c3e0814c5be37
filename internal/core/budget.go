package core

import "github.com/shopspring/decimal"

const (
	BudgetOK       BudgetState = "ok"
	BudgetWarning  BudgetState = "warning"
	BudgetExceeded BudgetState = "exceeded"
)

const (
	warningPercent  = 70
	exceededPercent = 100
)

type (
	BudgetState string

	BudgetStatus struct {
		CategoryID int64
		Period     YearMonth
		Spent      Money
		Ceiling    Money
		Percent    decimal.Decimal
		Status     BudgetState
	}
)

// ClassifyBudget computes spent/ceiling as a percentage rounded to two
// decimals and the resulting state. The state is decided on the exact ratio,
// so 99.995% is still a warning. A non-positive ceiling yields 0% and "ok".
func ClassifyBudget(spent, ceiling Money) (decimal.Decimal, BudgetState) {
	if ceiling.Cents <= 0 {
		return decimal.Zero, BudgetOK
	}
	pct := decimal.NewFromInt(spent.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(ceiling.Cents)).
		Round(2)

	scaled := decimal.NewFromInt(spent.Cents).Mul(decimal.NewFromInt(100))
	switch {
	case scaled.GreaterThanOrEqual(decimal.NewFromInt(ceiling.Cents).Mul(decimal.NewFromInt(exceededPercent))):
		return pct, BudgetExceeded
	case scaled.GreaterThanOrEqual(decimal.NewFromInt(ceiling.Cents).Mul(decimal.NewFromInt(warningPercent))):
		return pct, BudgetWarning
	default:
		return pct, BudgetOK
	}
}
