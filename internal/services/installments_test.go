package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestCreatePlan_SplitsAndSchedules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 10)
	cat := env.category(t, alice, "Electronics")

	planID, err := env.installments.CreatePlan(ctx, CreateInstallmentPlanParams{
		OwnerID: alice, AccountID: card, CategoryID: &cat,
		Description: "Laptop", Total: cents(10000), Count: 3, FirstDue: date(t, "2026-01-31"),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	entries, err := env.repo.Queries().ListEntriesByPlan(ctx, planID)
	if err != nil {
		t.Fatalf("ListEntriesByPlan: %v", err)
	}
	want := []struct {
		amount int64
		date   string
		desc   string
	}{
		{3333, "2026-01-31", "Laptop (1/3)"},
		{3333, "2026-02-28", "Laptop (2/3)"},
		{3334, "2026-03-31", "Laptop (3/3)"},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(entries), len(want))
	}
	var sum int64
	for i, e := range entries {
		sum += e.Amount.Cents
		if e.Amount.Cents != want[i].amount || e.Date.String() != want[i].date || e.Description != want[i].desc {
			t.Errorf("installment %d = %d %s %q, want %+v", i+1, e.Amount.Cents, e.Date, e.Description, want[i])
		}
		if e.InstallmentIndex != i+1 || e.Kind != core.Expense {
			t.Errorf("installment %d index=%d kind=%s", i+1, e.InstallmentIndex, e.Kind)
		}
		if e.CompetencePeriod() != core.MonthOf(e.Date) {
			t.Errorf("installment %d competence = %s, want own month", i+1, e.CompetencePeriod())
		}
	}
	if sum != 10000 {
		t.Errorf("sum = %d, want 10000", sum)
	}
}

func TestCreatePlan_RejectsInvalidInputBeforeWriting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 10)
	other := env.account(t, bob, "Bob card", core.CreditCard, 10)

	tests := []struct {
		name    string
		params  CreateInstallmentPlanParams
		wantErr error
	}{
		{"one installment", CreateInstallmentPlanParams{OwnerID: alice, AccountID: card, Total: cents(1000), Count: 1}, core.ErrInvalidArgument},
		{"too many installments", CreateInstallmentPlanParams{OwnerID: alice, AccountID: card, Total: cents(1000), Count: 61}, core.ErrInvalidArgument},
		{"zero total", CreateInstallmentPlanParams{OwnerID: alice, AccountID: card, Total: cents(0), Count: 2}, core.ErrInvalidArgument},
		{"fewer cents than installments", CreateInstallmentPlanParams{OwnerID: alice, AccountID: card, Total: cents(1), Count: 2}, core.ErrInvalidArgument},
		{"missing account", CreateInstallmentPlanParams{OwnerID: alice, AccountID: 999, Total: cents(1000), Count: 2}, core.ErrNotFound},
		{"foreign account", CreateInstallmentPlanParams{OwnerID: alice, AccountID: other, Total: cents(1000), Count: 2}, core.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.FirstDue = date(t, "2026-01-01")
			_, err := env.installments.CreatePlan(ctx, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := env.repo.Queries().GetPlan(ctx, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("a plan was written despite invalid input: %v", err)
	}
}

func TestCancelPlan_RemovesOnlyFutureUnsettled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 10)
	bank := env.account(t, alice, "Bank", core.Bank, 0)

	planID, err := env.installments.CreatePlan(ctx, CreateInstallmentPlanParams{
		OwnerID: alice, AccountID: card, Description: "Sofa",
		Total: cents(40000), Count: 4, FirstDue: date(t, "2026-01-15"),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	entries, _ := env.repo.Queries().ListEntriesByPlan(ctx, planID)

	// Pay the last installment early: settled entries survive cancellation.
	if _, err := env.transfers.SettleCreditCardExpense(ctx, SettleParams{
		EntryID: entries[3].ID, OwnerID: alice, BankAccountID: bank, SettleDate: date(t, "2026-02-01"),
	}); err != nil {
		t.Fatalf("SettleCreditCardExpense: %v", err)
	}

	if err := env.installments.CancelPlan(ctx, planID, alice, date(t, "2026-02-15")); err != nil {
		t.Fatalf("CancelPlan: %v", err)
	}

	left, _ := env.repo.Queries().ListEntriesByPlan(ctx, planID)
	var indexes []int
	for _, e := range left {
		indexes = append(indexes, e.InstallmentIndex)
	}
	if len(indexes) != 3 || indexes[0] != 1 || indexes[1] != 2 || indexes[2] != 4 {
		t.Errorf("remaining installments = %v, want [1 2 4]", indexes)
	}

	plan, _ := env.repo.Queries().GetPlan(ctx, planID)
	if plan.Active {
		t.Error("plan should be inactive")
	}

	if err := env.installments.CancelPlan(ctx, planID, alice, date(t, "2026-02-15")); err != nil {
		t.Errorf("cancelling an inactive plan should succeed, got %v", err)
	}
}

func TestCancelPlan_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 10)
	planID, err := env.installments.CreatePlan(ctx, CreateInstallmentPlanParams{
		OwnerID: alice, AccountID: card, Total: cents(1000), Count: 2, FirstDue: date(t, "2026-01-01"),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if err := env.installments.CancelPlan(ctx, 999, alice, date(t, "2026-01-01")); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing plan error = %v, want ErrNotFound", err)
	}
	if err := env.installments.CancelPlan(ctx, planID, bob, date(t, "2026-01-01")); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign plan error = %v, want ErrForbidden", err)
	}

	plan, _ := env.repo.Queries().GetPlan(ctx, planID)
	if !plan.Active {
		t.Error("failed cancellation must not deactivate the plan")
	}
}
