package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type CreateInstallmentPlanParams struct {
	OwnerID     int64
	AccountID   int64
	CategoryID  *int64
	Description string
	Total       core.Money
	Count       int
	FirstDue    core.Date
}

// InstallmentService splits a purchase into monthly expense entries and
// cancels the remaining ones on request.
type InstallmentService struct {
	storage  *storage.SQLiteRepository
	accounts *AccountService
}

func NewInstallmentService(storage *storage.SQLiteRepository, accounts *AccountService) *InstallmentService {
	return &InstallmentService{storage: storage, accounts: accounts}
}

// CreatePlan validates the inputs, then writes the plan and all of its
// entries atomically.
func (s *InstallmentService) CreatePlan(ctx context.Context, p CreateInstallmentPlanParams) (int64, error) {
	if err := core.ValidateInstallments(p.Total, p.Count); err != nil {
		return 0, err
	}
	if err := p.FirstDue.Validate(); err != nil {
		return 0, err
	}
	amounts, err := core.SplitCents(p.Total, p.Count)
	if err != nil {
		return 0, err
	}
	description := strings.TrimSpace(p.Description)
	if len(description) > 200 {
		return 0, fmt.Errorf("%w: description too long (max 200 characters)", core.ErrInvalidArgument)
	}

	var planID int64
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := s.accounts.owned(ctx, q, p.OwnerID, p.AccountID); err != nil {
			return err
		}
		if err := ownedCategory(ctx, q, p.OwnerID, p.CategoryID); err != nil {
			return err
		}

		var err error
		planID, err = q.CreatePlan(ctx, core.InstallmentPlan{
			OwnerID:     p.OwnerID,
			AccountID:   p.AccountID,
			CategoryID:  p.CategoryID,
			Description: description,
			Total:       p.Total,
			Count:       p.Count,
			FirstDue:    p.FirstDue,
		})
		if err != nil {
			return err
		}

		entryIDs := make([]int64, 0, p.Count)
		for i, amount := range amounts {
			index := i + 1
			date := core.AddMonthsAnchored(p.FirstDue, i, p.FirstDue.Day())
			competence := core.MonthOf(date)
			id, err := q.InsertEntry(ctx, core.Entry{
				OwnerID:          p.OwnerID,
				AccountID:        p.AccountID,
				CategoryID:       p.CategoryID,
				Kind:             core.Expense,
				Amount:           amount,
				Date:             date,
				Competence:       &competence,
				Description:      installmentLabel(description, index, p.Count),
				PlanID:           &planID,
				InstallmentIndex: index,
			})
			if err != nil {
				return fmt.Errorf("insert installment %d/%d: %w", index, p.Count, err)
			}
			entryIDs = append(entryIDs, id)
		}

		return enqueue(ctx, q, EventInstallmentCreated, strconv.FormatInt(planID, 10), p.OwnerID, InstallmentCreatedEvent{
			PlanID:   planID,
			Total:    p.Total.String(),
			Count:    p.Count,
			EntryIDs: entryIDs,
		})
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Installment plan created",
		"plan_id", planID,
		"owner_id", p.OwnerID,
		"total_cents", p.Total.Cents,
		"count", p.Count,
		"first_due", p.FirstDue.String())
	return planID, nil
}

// CancelPlan deactivates the plan and removes its unsettled entries dated
// after today. Past and settled installments stay. Cancelling an inactive
// plan succeeds without changes.
func (s *InstallmentService) CancelPlan(ctx context.Context, planID, ownerID int64, today core.Date) error {
	if err := today.Validate(); err != nil {
		return err
	}

	var removed int64
	var wasActive bool
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		plan, err := q.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.OwnerID != ownerID {
			return fmt.Errorf("installment plan %d: %w", planID, core.ErrForbidden)
		}
		if !plan.Active {
			return nil
		}
		wasActive = true

		if err := q.DeactivatePlan(ctx, planID); err != nil {
			return err
		}
		removed, err = q.DeleteFuturePlanEntries(ctx, planID, today)
		if err != nil {
			return err
		}
		return enqueue(ctx, q, EventInstallmentCancelled, strconv.FormatInt(planID, 10), ownerID, InstallmentCancelledEvent{
			PlanID:         planID,
			RemovedEntries: removed,
			Today:          today.String(),
		})
	})
	if err != nil {
		return err
	}

	if wasActive {
		slog.InfoContext(ctx, "Installment plan cancelled",
			"plan_id", planID,
			"removed_entries", removed)
	}
	return nil
}

func installmentLabel(description string, index, count int) string {
	if description == "" {
		description = "Installment"
	}
	return fmt.Sprintf("%s (%d/%d)", description, index, count)
}
