package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestRecordEntry_StampsCompetence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 25)
	bank := env.account(t, alice, "Bank", core.Bank, 0)

	tests := []struct {
		name    string
		account int64
		date    string
		want    string
	}{
		{"card before closing", card, "2026-03-24", "2026-04"},
		{"card on closing day", card, "2026-03-25", "2026-05"},
		{"card after closing", card, "2026-03-26", "2026-05"},
		{"bank", bank, "2026-03-26", "2026-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := env.entries.RecordEntry(ctx, RecordEntryParams{
				OwnerID: alice, AccountID: tt.account, Kind: core.Expense,
				Amount: cents(1000), Date: date(t, tt.date), Description: "Groceries",
			})
			if err != nil {
				t.Fatalf("RecordEntry: %v", err)
			}
			if got := env.entry(t, id).CompetencePeriod().String(); got != tt.want {
				t.Errorf("competence = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecordEntry_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bank := env.account(t, alice, "Bank", core.Bank, 0)
	bobCat := env.category(t, bob, "Bob food")

	tests := []struct {
		name    string
		params  RecordEntryParams
		wantErr error
	}{
		{"bad kind", RecordEntryParams{AccountID: bank, Kind: "refund", Amount: cents(1)}, core.ErrInvalidArgument},
		{"zero amount", RecordEntryParams{AccountID: bank, Kind: core.Expense}, core.ErrInvalidAmount},
		{"missing account", RecordEntryParams{AccountID: 999, Kind: core.Expense, Amount: cents(1)}, core.ErrNotFound},
		{"foreign category", RecordEntryParams{AccountID: bank, CategoryID: &bobCat, Kind: core.Expense, Amount: cents(1)}, core.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.OwnerID = alice
			tt.params.Date = date(t, "2026-01-01")
			if _, err := env.entries.RecordEntry(ctx, tt.params); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEditEntry_RecomputesCompetenceOnlyWhenMoved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 25)
	bank := env.account(t, alice, "Bank", core.Bank, 0)

	id, err := env.entries.RecordEntry(ctx, RecordEntryParams{
		OwnerID: alice, AccountID: card, Kind: core.Expense, Amount: cents(1000), Date: date(t, "2026-03-24"),
	})
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}

	desc := "Dinner"
	e, err := env.entries.EditEntry(ctx, alice, id, EntryPatch{Description: &desc})
	if err != nil {
		t.Fatalf("EditEntry description: %v", err)
	}
	if e.CompetencePeriod().String() != "2026-04" || e.Description != "Dinner" {
		t.Errorf("after description edit: %s %q", e.CompetencePeriod(), e.Description)
	}

	newDate := date(t, "2026-03-26")
	e, err = env.entries.EditEntry(ctx, alice, id, EntryPatch{Date: &newDate})
	if err != nil {
		t.Fatalf("EditEntry date: %v", err)
	}
	if got := env.entry(t, id).CompetencePeriod().String(); got != "2026-05" {
		t.Errorf("after date edit competence = %s, want 2026-05", got)
	}

	e, err = env.entries.EditEntry(ctx, alice, id, EntryPatch{AccountID: &bank})
	if err != nil {
		t.Fatalf("EditEntry account: %v", err)
	}
	if got := env.entry(t, id).CompetencePeriod().String(); got != "2026-03" {
		t.Errorf("after account edit competence = %s, want 2026-03", got)
	}

	if _, err := env.entries.EditEntry(ctx, bob, id, EntryPatch{Description: &desc}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign edit error = %v, want ErrForbidden", err)
	}
}

func TestTransferLegs_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.account(t, alice, "A", core.Bank, 0)
	b := env.account(t, alice, "B", core.Cash, 0)

	group, err := env.transfers.CreateTransfer(ctx, TransferParams{
		OwnerID: alice, FromAccountID: a, ToAccountID: b, Amount: cents(5000), Date: date(t, "2026-02-01"),
	})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	legs, _ := env.repo.Queries().ListEntriesByTransferGroup(ctx, group)

	amount := cents(1)
	if _, err := env.entries.EditEntry(ctx, alice, legs[0].ID, EntryPatch{Amount: &amount}); !errors.Is(err, core.ErrTransferLeg) {
		t.Errorf("editing a transfer leg error = %v, want ErrTransferLeg", err)
	}

	if err := env.entries.DeleteEntry(ctx, alice, legs[1].ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if left, _ := env.repo.Queries().ListEntriesByTransferGroup(ctx, group); len(left) != 0 {
		t.Errorf("deleting one leg left %d entries", len(left))
	}
}

func TestComputeCompetencePeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 28)

	got, err := env.accounts.ComputeCompetencePeriod(ctx, card, date(t, "2026-02-28"))
	if err != nil {
		t.Fatalf("ComputeCompetencePeriod: %v", err)
	}
	if got.String() != "2026-04" {
		t.Errorf("competence = %s, want 2026-04", got)
	}

	if _, err := env.accounts.ComputeCompetencePeriod(ctx, 999, date(t, "2026-02-28")); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing account error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAccount_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	card := env.account(t, alice, "Visa", core.CreditCard, 25)

	if _, err := env.accounts.ComputeCompetencePeriod(ctx, card, date(t, "2026-03-10")); err != nil {
		t.Fatal(err)
	}
	if err := env.accounts.UpdateAccount(ctx, alice, core.Account{ID: card, Name: "Visa", Type: core.CreditCard, ClosingDay: 5}); err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	got, err := env.accounts.ComputeCompetencePeriod(ctx, card, date(t, "2026-03-10"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "2026-05" {
		t.Errorf("competence after closing day change = %s, want 2026-05", got)
	}
}
