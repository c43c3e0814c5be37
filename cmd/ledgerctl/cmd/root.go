// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// app carries the global flags and the lazily opened ledger.
type app struct {
	dbPath         string
	owner          int64
	debug          bool
	statementAware bool
	now            func() time.Time

	repo   *storage.SQLiteRepository
	ledger *services.Ledger
}

// Execute runs ledgerctl with os.Args.
func Execute() error {
	cli.LoadEnvFile()
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the ledger posting engine from the command line",
		Long: `ledgerctl records entries and runs the ledger's posting operations
against a local SQLite database.

Example:
  ledgerctl account add --name Visa --type credit_card --closing-day 25
  ledgerctl competence --account 1 --date 2025-06-26
  ledgerctl run-recurring --as-of 2026-03-31`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.debug {
				level = slog.LevelDebug
			}
			applog.SetDefault(applog.New(applog.Config{
				Level:     level,
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	root.PersistentFlags().Int64Var(&a.owner, "owner", 1, "owner id the command acts for")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.statementAware, "statement-aware", cfg.RecurringStatementAware,
		"stamp recurring card postings with their statement period")

	root.AddCommand(
		newRunRecurringCmd(a),
		newInstallmentCmd(a),
		newTransferCmd(a),
		newSettleCmd(a),
		newCompetenceCmd(a),
		newBudgetCmd(a),
		newAccountCmd(a),
		newCategoryCmd(a),
		newRecurringCmd(a),
		newEntryCmd(a),
		newOutboxCmd(a),
	)
	return root
}

// run opens the ledger for the duration of fn.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, l *services.Ledger) error) error {
	l, err := a.open()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), l)
}

func (a *app) open() (*services.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	repo, err := storage.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	a.repo = repo
	a.ledger = services.NewLedger(repo, services.LedgerOptions{
		AccountCacheSize:        64,
		AccountCacheTTL:         time.Minute,
		RecurringStatementAware: a.statementAware,
	})
	return a.ledger, nil
}

func (a *app) close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
		a.repo, a.ledger = nil, nil
	}
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

// dateFlag parses an optional YYYY-MM-DD flag, defaulting to today.
func (a *app) dateFlag(name, v string) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return a.today(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func moneyFlag(name, v string) (core.Money, error) {
	m, err := core.ParseMoney(v)
	if err != nil {
		return core.Money{}, fmt.Errorf("--%s: %w", name, err)
	}
	return m, nil
}

// optionalID turns a zero flag value into nil.
func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// stdin is swapped by tests.
var stdin io.Reader = os.Stdin
