package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

type testEnv struct {
	repo         *storage.SQLiteRepository
	accounts     *AccountService
	recurring    *RecurringProcessor
	installments *InstallmentService
	transfers    *TransferService
	entries      *EntryService
	budgets      *BudgetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	l := NewLedger(repo, LedgerOptions{AccountCacheSize: 16, AccountCacheTTL: time.Minute})
	return &testEnv{
		repo:         repo,
		accounts:     l.Accounts,
		recurring:    l.Recurring,
		installments: l.Installments,
		transfers:    l.Transfers,
		entries:      l.Entries,
		budgets:      l.Budgets,
	}
}

func (e *testEnv) account(t *testing.T, owner int64, name string, typ core.AccountType, closingDay int) int64 {
	t.Helper()
	id, err := e.accounts.CreateAccount(context.Background(), core.Account{
		OwnerID: owner, Name: name, Type: typ, ClosingDay: closingDay,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return id
}

func (e *testEnv) category(t *testing.T, owner int64, name string) int64 {
	t.Helper()
	id, err := e.accounts.CreateCategory(context.Background(), core.Category{OwnerID: owner, Name: name, Kind: core.Expense})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return id
}

func (e *testEnv) entry(t *testing.T, id int64) core.Entry {
	t.Helper()
	got, err := e.repo.Queries().GetEntry(context.Background(), id)
	if err != nil {
		t.Fatalf("get entry %d: %v", id, err)
	}
	return got
}

func cents(n int64) core.Money {
	return core.Money{Cents: n}
}

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func ym(t *testing.T, s string) core.YearMonth {
	t.Helper()
	p, err := core.ParseYearMonth(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
