package services

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// BudgetService compares category spending with the configured ceilings.
// Status reads never write.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// GetBudgetStatus reports spending for one of the owner's categories in one
// period. A category without a budget row has a zero ceiling.
func (s *BudgetService) GetBudgetStatus(ctx context.Context, ownerID, categoryID int64, period core.YearMonth) (core.BudgetStatus, error) {
	q := s.storage.Queries()
	if err := ownedCategory(ctx, q, ownerID, &categoryID); err != nil {
		return core.BudgetStatus{}, err
	}
	ceiling, _, err := q.GetBudgetCeiling(ctx, ownerID, categoryID, period)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.status(ctx, q, ownerID, categoryID, period, core.Money{Cents: ceiling})
}

// ListBudgetStatuses returns the status of every budget configured for the
// period, ordered by category.
func (s *BudgetService) ListBudgetStatuses(ctx context.Context, ownerID int64, period core.YearMonth) ([]core.BudgetStatus, error) {
	q := s.storage.Queries()
	budgets, err := q.ListBudgets(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.status(ctx, q, ownerID, b.CategoryID, period, b.Ceiling)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// SetBudget creates or replaces the ceiling for (category, period).
func (s *BudgetService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := setBudget(ctx, s.storage.Queries(), b); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget set",
		"category_id", b.CategoryID,
		"period", b.Period.String(),
		"ceiling_cents", b.Ceiling.Cents)
	return nil
}

// ImportBudgets upserts every budget in one transaction; one invalid row
// rejects the whole import.
func (s *BudgetService) ImportBudgets(ctx context.Context, budgets []core.Budget) error {
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		for i, b := range budgets {
			if err := setBudget(ctx, q, b); err != nil {
				return fmt.Errorf("budget %d (category %d, %s): %w", i+1, b.CategoryID, b.Period, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budgets imported", "count", len(budgets))
	return nil
}

func setBudget(ctx context.Context, q *storage.Queries, b core.Budget) error {
	if b.Ceiling.Cents < 0 {
		return fmt.Errorf("%w: ceiling cannot be negative", core.ErrInvalidArgument)
	}
	if b.Period.Month < 1 || b.Period.Month > 12 {
		return core.ErrInvalidMonth
	}
	c, err := q.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return err
	}
	if c.OwnerID != b.OwnerID {
		return fmt.Errorf("category %d: %w", b.CategoryID, core.ErrForbidden)
	}
	return q.UpsertBudget(ctx, b)
}

func (s *BudgetService) status(ctx context.Context, q *storage.Queries, ownerID, categoryID int64, period core.YearMonth, ceiling core.Money) (core.BudgetStatus, error) {
	spent, err := q.SumExpensesForPeriod(ctx, ownerID, categoryID, period)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	st := core.BudgetStatus{
		CategoryID: categoryID,
		Period:     period,
		Spent:      core.Money{Cents: spent},
		Ceiling:    ceiling,
	}
	st.Percent, st.Status = core.ClassifyBudget(st.Spent, st.Ceiling)
	return st, nil
}
