package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestGetBudgetStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bank := env.account(t, alice, "Bank", core.Bank, 0)
	savings := env.account(t, alice, "Savings", core.Bank, 0)
	food := env.category(t, alice, "Food")
	fun := env.category(t, alice, "Fun")
	rent := env.category(t, alice, "Rent")
	march := ym(t, "2026-03")

	spend := func(cat int64, amount int64, day string) {
		t.Helper()
		if _, err := env.entries.RecordEntry(ctx, RecordEntryParams{
			OwnerID: alice, AccountID: bank, CategoryID: &cat, Kind: core.Expense,
			Amount: cents(amount), Date: date(t, day),
		}); err != nil {
			t.Fatalf("RecordEntry: %v", err)
		}
	}
	spend(food, 5000, "2026-03-02")
	spend(food, 3000, "2026-03-30")
	spend(food, 9900, "2026-04-01")
	spend(fun, 12000, "2026-03-15")
	spend(rent, 5000, "2026-03-01")

	if _, err := env.transfers.CreateTransfer(ctx, TransferParams{
		OwnerID: alice, FromAccountID: bank, ToAccountID: savings, Amount: cents(50000), Date: date(t, "2026-03-05"),
	}); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	for _, b := range []core.Budget{
		{OwnerID: alice, CategoryID: food, Period: march, Ceiling: cents(10000)},
		{OwnerID: alice, CategoryID: fun, Period: march, Ceiling: cents(10000)},
	} {
		if err := env.budgets.SetBudget(ctx, b); err != nil {
			t.Fatalf("SetBudget: %v", err)
		}
	}

	tests := []struct {
		name        string
		category    int64
		wantSpent   int64
		wantPercent string
		wantStatus  core.BudgetState
	}{
		{"warning at 80 percent", food, 8000, "80", core.BudgetWarning},
		{"exceeded at 120 percent", fun, 12000, "120", core.BudgetExceeded},
		{"no budget row", rent, 5000, "0", core.BudgetOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := env.budgets.GetBudgetStatus(ctx, alice, tt.category, march)
			if err != nil {
				t.Fatalf("GetBudgetStatus: %v", err)
			}
			if st.Spent.Cents != tt.wantSpent || st.Percent.String() != tt.wantPercent || st.Status != tt.wantStatus {
				t.Errorf("status = spent %d, %s%%, %s; want %d, %s%%, %s",
					st.Spent.Cents, st.Percent, st.Status, tt.wantSpent, tt.wantPercent, tt.wantStatus)
			}
		})
	}

	if _, err := env.budgets.GetBudgetStatus(ctx, bob, food, march); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign category error = %v, want ErrForbidden", err)
	}
	if _, err := env.budgets.GetBudgetStatus(ctx, alice, 9999, march); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing category error = %v, want ErrNotFound", err)
	}

	all, err := env.budgets.ListBudgetStatuses(ctx, alice, march)
	if err != nil {
		t.Fatalf("ListBudgetStatuses: %v", err)
	}
	if len(all) != 2 || all[0].CategoryID != food || all[1].Status != core.BudgetExceeded {
		t.Errorf("ListBudgetStatuses = %+v", all)
	}
}

func TestSetBudget_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	food := env.category(t, alice, "Food")
	march := ym(t, "2026-03")

	if err := env.budgets.SetBudget(ctx, core.Budget{OwnerID: alice, CategoryID: food, Period: march, Ceiling: cents(-1)}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("negative ceiling error = %v", err)
	}
	if err := env.budgets.SetBudget(ctx, core.Budget{OwnerID: bob, CategoryID: food, Period: march, Ceiling: cents(1)}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign category error = %v", err)
	}
	if err := env.budgets.SetBudget(ctx, core.Budget{OwnerID: alice, CategoryID: food, Period: march, Ceiling: cents(100)}); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if err := env.budgets.SetBudget(ctx, core.Budget{OwnerID: alice, CategoryID: food, Period: march, Ceiling: cents(200)}); err != nil {
		t.Fatalf("SetBudget replace: %v", err)
	}
	st, _ := env.budgets.GetBudgetStatus(ctx, alice, food, march)
	if st.Ceiling.Cents != 200 {
		t.Errorf("ceiling = %d, want 200", st.Ceiling.Cents)
	}
}
