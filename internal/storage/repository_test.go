package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAccount(t *testing.T, q *Queries, a core.Account) int64 {
	t.Helper()
	id, err := q.CreateAccount(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return id
}

func mustCategory(t *testing.T, q *Queries, ownerID int64, name string) int64 {
	t.Helper()
	id, err := q.CreateCategory(context.Background(), core.Category{OwnerID: ownerID, Name: name, Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return id
}

func period(t *testing.T, s string) *core.YearMonth {
	t.Helper()
	ym, err := core.ParseYearMonth(s)
	if err != nil {
		t.Fatal(err)
	}
	return &ym
}

func TestRepository_AccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	id := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Visa", Type: core.CreditCard, ClosingDay: 25})
	got, err := q.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Type != core.CreditCard || got.ClosingDay != 25 || got.OwnerID != 1 {
		t.Errorf("unexpected account %+v", got)
	}

	if _, err := q.GetAccount(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing account error = %v, want ErrNotFound", err)
	}
}

func TestRepository_UpsertSystemCategoryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	first, err := q.UpsertSystemCategory(ctx, 7, core.Income, "Transfer in")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := q.UpsertSystemCategory(ctx, 7, core.Income, "Transfer in")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first != second {
		t.Errorf("upsert returned %d then %d, want the same id", first, second)
	}

	other, err := q.UpsertSystemCategory(ctx, 8, core.Income, "Transfer in")
	if err != nil {
		t.Fatalf("other owner upsert: %v", err)
	}
	if other == first {
		t.Error("different owners must get different categories")
	}
}

func TestRepository_SumExpensesForPeriod(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	acct := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Bank", Type: core.Bank})
	cat := mustCategory(t, q, 1, "Food")
	otherCat := mustCategory(t, q, 1, "Rent")

	entries := []core.Entry{
		// stored competence matches
		{Amount: core.Money{Cents: 1000}, Date: core.NewDate(2026, 2, 20), Competence: period(t, "2026-03")},
		// legacy row dated inside the period
		{Amount: core.Money{Cents: 200}, Date: core.NewDate(2026, 3, 31)},
		// dated inside the period but competence points elsewhere
		{Amount: core.Money{Cents: 5000}, Date: core.NewDate(2026, 3, 10), Competence: period(t, "2026-04")},
		// legacy row outside the period
		{Amount: core.Money{Cents: 7000}, Date: core.NewDate(2026, 4, 1)},
		// transfers never count
		{Amount: core.Money{Cents: 9000}, Date: core.NewDate(2026, 3, 5), Competence: period(t, "2026-03"), IsTransfer: true, TransferGroup: "g"},
		// income never counts
		{Amount: core.Money{Cents: 9000}, Date: core.NewDate(2026, 3, 5), Competence: period(t, "2026-03"), Kind: core.Income},
	}
	for _, e := range entries {
		e.OwnerID = 1
		e.AccountID = acct
		e.CategoryID = &cat
		if e.Kind == "" {
			e.Kind = core.Expense
		}
		if _, err := q.InsertEntry(ctx, e); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}
	if _, err := q.InsertEntry(ctx, core.Entry{
		OwnerID: 1, AccountID: acct, CategoryID: &otherCat, Kind: core.Expense,
		Amount: core.Money{Cents: 4200}, Date: core.NewDate(2026, 3, 1),
	}); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	got, err := q.SumExpensesForPeriod(ctx, 1, cat, *period(t, "2026-03"))
	if err != nil {
		t.Fatalf("SumExpensesForPeriod: %v", err)
	}
	if got != 1200 {
		t.Errorf("spent = %d, want 1200", got)
	}
}

func TestRepository_AdvanceRecurringCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	acct := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Bank", Type: core.Bank})
	start := core.NewDate(2026, 1, 5)
	id, err := q.CreateRecurring(ctx, core.RecurringDefinition{
		OwnerID: 1, AccountID: acct, Kind: core.Expense, Amount: core.Money{Cents: 999},
		Description: "Gym", Frequency: core.Monthly, Interval: 1,
		StartDate: start, NextDue: start, AutoPost: true, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	next := core.NewDate(2026, 2, 5)
	if err := q.AdvanceRecurring(ctx, id, start, next, true); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if err := q.AdvanceRecurring(ctx, id, start, next, true); !errors.Is(err, core.ErrConflict) {
		t.Errorf("stale advance error = %v, want ErrConflict", err)
	}

	rd, err := q.GetRecurring(ctx, id)
	if err != nil {
		t.Fatalf("GetRecurring: %v", err)
	}
	if rd.NextDue.String() != "2026-02-05" {
		t.Errorf("next due = %s, want 2026-02-05", rd.NextDue)
	}
}

func TestRepository_ListDueRecurringPaging(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	acct := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Bank", Type: core.Bank})
	base := core.RecurringDefinition{
		OwnerID: 1, AccountID: acct, Kind: core.Expense, Amount: core.Money{Cents: 100},
		Description: "x", Frequency: core.Monthly, Interval: 1, AutoPost: true, Active: true,
	}
	dues := []core.Date{
		core.NewDate(2026, 1, 1),
		core.NewDate(2026, 2, 1),
		core.NewDate(2026, 5, 1), // not yet due
		core.NewDate(2026, 3, 1),
	}
	for _, d := range dues {
		rd := base
		rd.StartDate, rd.NextDue = d, d
		if _, err := q.CreateRecurring(ctx, rd); err != nil {
			t.Fatalf("CreateRecurring: %v", err)
		}
	}
	manual := base
	manual.StartDate, manual.NextDue, manual.AutoPost = dues[0], dues[0], false
	if _, err := q.CreateRecurring(ctx, manual); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	asOf := core.NewDate(2026, 3, 31)
	page, err := q.ListDueRecurring(ctx, asOf, 0, 2)
	if err != nil {
		t.Fatalf("ListDueRecurring: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("first page size = %d, want 2", len(page))
	}
	rest, err := q.ListDueRecurring(ctx, asOf, page[1].ID, 2)
	if err != nil {
		t.Fatalf("ListDueRecurring: %v", err)
	}
	if len(rest) != 1 || rest[0].NextDue.String() != "2026-03-01" {
		t.Errorf("second page = %+v, want only the 2026-03-01 definition", rest)
	}
}

func TestRepository_MarkEntrySettledOnce(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	card := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Visa", Type: core.CreditCard, ClosingDay: 10})
	bank := mustAccount(t, q, core.Account{OwnerID: 1, Name: "Bank", Type: core.Bank})
	id, err := q.InsertEntry(ctx, core.Entry{
		OwnerID: 1, AccountID: card, Kind: core.Expense, Amount: core.Money{Cents: 500}, Date: core.NewDate(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	at := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	ok, err := q.MarkEntrySettled(ctx, id, at, bank)
	if err != nil || !ok {
		t.Fatalf("first settle = %v, %v; want true, nil", ok, err)
	}
	ok, err = q.MarkEntrySettled(ctx, id, at, bank)
	if err != nil || ok {
		t.Fatalf("second settle = %v, %v; want false, nil", ok, err)
	}

	e, err := q.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !e.Settled || e.SettledAt == nil || !e.SettledAt.Equal(at) || e.SettledAccountID == nil || *e.SettledAccountID != bank {
		t.Errorf("unexpected settlement fields %+v", e)
	}
}

func TestRepository_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(q *Queries) error {
		if _, err := q.CreateAccount(ctx, core.Account{OwnerID: 1, Name: "Bank", Type: core.Bank}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	accounts, err := repo.Queries().ListAccounts(ctx, 1)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("rolled back transaction left %d accounts", len(accounts))
	}
}

func TestRepository_EventQueue(t *testing.T) {
	ctx := context.Background()
	q := newTestRepo(t).Queries()

	for _, typ := range []string{"transfer.created", "entry.settled"} {
		if _, err := q.EnqueueEvent(ctx, EnqueueEventParams{EventType: typ, AggregateID: "a", OwnerID: 1, Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("EnqueueEvent: %v", err)
		}
	}

	events, err := q.DequeueEvents(ctx, 10)
	if err != nil {
		t.Fatalf("DequeueEvents: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "transfer.created" {
		t.Fatalf("unexpected events %+v", events)
	}

	claimed, err := q.MarkEventProcessing(ctx, events[0].ID)
	if err != nil || !claimed {
		t.Fatalf("claim = %v, %v", claimed, err)
	}
	claimed, err = q.MarkEventProcessing(ctx, events[0].ID)
	if err != nil || claimed {
		t.Fatalf("second claim = %v, %v; want false", claimed, err)
	}
	if err := q.MarkEventCompleted(ctx, events[0].ID); err != nil {
		t.Fatalf("MarkEventCompleted: %v", err)
	}
	if err := q.MarkEventFailed(ctx, events[1].ID, "broker down"); err != nil {
		t.Fatalf("MarkEventFailed: %v", err)
	}

	stats, err := q.EventStats(ctx)
	if err != nil {
		t.Fatalf("EventStats: %v", err)
	}
	if stats.Completed != 1 || stats.Failed != 1 || stats.Pending != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if n, err := q.RetryFailedEvents(ctx); err != nil || n != 1 {
		t.Errorf("RetryFailedEvents = %d, %v", n, err)
	}
}
