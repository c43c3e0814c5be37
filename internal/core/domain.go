package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"

	Income  Kind = "income"
	Expense Kind = "expense"

	Cash       AccountType = "cash"
	Bank       AccountType = "bank"
	CreditCard AccountType = "credit_card"
	Other      AccountType = "other"
)

const (
	MinInstallments = 2
	MaxInstallments = 60
)

type (
	Frequency   string
	Kind        string
	AccountType string

	Account struct {
		ID         int64
		OwnerID    int64
		Name       string
		Type       AccountType
		ClosingDay int // 0 when not configured
	}

	Category struct {
		ID       int64
		OwnerID  int64
		Name     string
		Kind     Kind
		IsSystem bool
	}

	Entry struct {
		ID            int64
		OwnerID       int64
		AccountID     int64
		CategoryID    *int64
		Kind          Kind
		Amount        Money
		Date          Date
		Competence    *YearMonth // nil for legacy rows
		Description   string
		Note          string
		PaymentMethod string

		TransferGroup string
		IsTransfer    bool

		Settled          bool
		SettledAt        *time.Time
		SettledAccountID *int64

		RecurringID      *int64
		PlanID           *int64
		InstallmentIndex int
	}

	RecurringDefinition struct {
		ID          int64
		OwnerID     int64
		AccountID   int64
		CategoryID  *int64
		Kind        Kind
		Amount      Money
		Description string
		Frequency   Frequency
		Interval    int
		StartDate   Date
		EndDate     Date // zero when open-ended
		NextDue     Date
		AutoPost    bool
		Active      bool
	}

	InstallmentPlan struct {
		ID          int64
		OwnerID     int64
		AccountID   int64
		CategoryID  *int64
		Description string
		Total       Money
		Count       int
		FirstDue    Date
		Active      bool
	}

	Budget struct {
		ID         int64
		OwnerID    int64
		CategoryID int64
		Period     YearMonth
		Ceiling    Money
	}
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Opposite returns the kind of the other leg of a transfer pair.
func (k Kind) Opposite() Kind {
	if k == Income {
		return Expense
	}
	return Income
}

func (t AccountType) Valid() bool {
	switch t {
	case Cash, Bank, CreditCard, Other:
		return true
	default:
		return false
	}
}

// CompetencePeriod returns the stored competence period, falling back to the
// occurrence month for rows that predate competence tracking.
func (e Entry) CompetencePeriod() YearMonth {
	if e.Competence != nil {
		return *e.Competence
	}
	return MonthOf(e.Date)
}

func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind %q", ErrInvalidArgument, e.Kind)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidArgument)
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: empty account name", ErrInvalidArgument)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: invalid account type %q", ErrInvalidArgument, a.Type)
	}
	if a.ClosingDay != 0 {
		if a.Type != CreditCard {
			return fmt.Errorf("%w: closing day is only valid for credit cards", ErrInvalidArgument)
		}
		if a.ClosingDay < 1 || a.ClosingDay > 28 {
			return fmt.Errorf("%w: closing day must be between 1 and 28", ErrInvalidArgument)
		}
	}
	return nil
}

// Billing returns the account's statement configuration.
func (a Account) Billing() BillingConfig {
	return BillingConfig{Type: a.Type, ClosingDay: a.ClosingDay}
}

func (rd RecurringDefinition) Validate() error {
	if err := rd.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if !rd.EndDate.IsZero() && rd.EndDate.Before(rd.StartDate.Time) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidArgument)
	}
	if rd.Frequency != Monthly && rd.Frequency != Yearly {
		return fmt.Errorf("%w: invalid frequency %q", ErrInvalidArgument, rd.Frequency)
	}
	if rd.Interval < 1 {
		return fmt.Errorf("%w: interval must be a positive integer", ErrInvalidArgument)
	}
	if !rd.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind %q", ErrInvalidArgument, rd.Kind)
	}
	if len(strings.TrimSpace(rd.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rd.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidArgument)
	}
	return rd.Amount.Validate()
}

// ValidateInstallments checks the plan inputs before any write happens.
func ValidateInstallments(total Money, count int) error {
	if count < MinInstallments || count > MaxInstallments {
		return fmt.Errorf("%w: installment count must be between %d and %d", ErrInvalidArgument, MinInstallments, MaxInstallments)
	}
	return total.Validate()
}
