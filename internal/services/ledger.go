package services

import (
	"time"

	"ledger/internal/storage"
)

type LedgerOptions struct {
	AccountCacheSize        int
	AccountCacheTTL         time.Duration
	RecurringStatementAware bool
}

// Ledger bundles the posting services sharing one repository and one account
// cache.
type Ledger struct {
	Accounts     *AccountService
	Entries      *EntryService
	Recurring    *RecurringProcessor
	Installments *InstallmentService
	Transfers    *TransferService
	Budgets      *BudgetService
}

func NewLedger(repo *storage.SQLiteRepository, opts LedgerOptions) *Ledger {
	accounts := NewAccountService(repo, opts.AccountCacheSize, opts.AccountCacheTTL)
	return &Ledger{
		Accounts:     accounts,
		Entries:      NewEntryService(repo, accounts),
		Recurring:    NewRecurringProcessor(repo, accounts, opts.RecurringStatementAware),
		Installments: NewInstallmentService(repo, accounts),
		Transfers:    NewTransferService(repo, accounts),
		Budgets:      NewBudgetService(repo),
	}
}
