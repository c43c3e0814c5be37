package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

func newRunRecurringCmd(a *app) *cobra.Command {
	var (
		asOf      string
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "run-recurring",
		Short: "Post every recurring entry due on or before a date",
		Long: `Posts all occurrences owed by active recurring definitions, catching
up on missed periods. Each definition succeeds or fails on its own.

Example:
  ledgerctl run-recurring --as-of 2026-03-31 --batch-size 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.dateFlag("as-of", asOf)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				res, err := l.Recurring.RunRecurrencePosting(ctx, date, batchSize)
				fmt.Fprintf(out(cmd), "posted %d entries as of %s\n", res.Posted, date)
				if len(res.Failed) > 0 {
					fmt.Fprintf(out(cmd), "failed definitions: %v\n", res.Failed)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&batchSize, "batch-size", services.DefaultRecurringBatchSize, "definitions fetched per page")
	return cmd
}

func newRecurringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring definitions",
	}

	var (
		account, category  int64
		kind, amount, desc string
		frequency          string
		interval           int
		start, end         string
		manual             bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring definition",
		Long: `Example:
  ledgerctl recurring add --account 1 --amount 800 --description Rent --start 2026-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := moneyFlag("amount", amount)
			if err != nil {
				return err
			}
			startDate, err := a.dateFlag("start", start)
			if err != nil {
				return err
			}
			var endDate core.Date
			if end != "" {
				if endDate, err = core.ParseDate(end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				id, err := l.Recurring.CreateDefinition(ctx, core.RecurringDefinition{
					OwnerID:     a.owner,
					AccountID:   account,
					CategoryID:  optionalID(category),
					Kind:        core.Kind(kind),
					Amount:      m,
					Description: desc,
					Frequency:   core.Frequency(frequency),
					Interval:    interval,
					StartDate:   startDate,
					EndDate:     endDate,
					AutoPost:    !manual,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "recurring definition %d created\n", id)
				return nil
			})
		},
	}
	add.Flags().Int64Var(&account, "account", 0, "account id")
	add.Flags().Int64Var(&category, "category", 0, "category id (optional)")
	add.Flags().StringVar(&kind, "kind", string(core.Expense), "income or expense")
	add.Flags().StringVar(&amount, "amount", "", "amount per occurrence, e.g. 12.50")
	add.Flags().StringVar(&desc, "description", "", "description")
	add.Flags().StringVar(&frequency, "frequency", string(core.Monthly), "monthly or yearly")
	add.Flags().IntVar(&interval, "interval", 1, "periods between occurrences")
	add.Flags().StringVar(&start, "start", "", "first occurrence YYYY-MM-DD (default today)")
	add.Flags().StringVar(&end, "end", "", "last possible occurrence YYYY-MM-DD")
	add.Flags().BoolVar(&manual, "manual", false, "do not post automatically")
	_ = add.MarkFlagRequired("account")
	_ = add.MarkFlagRequired("amount")

	cmd.AddCommand(add)
	return cmd
}
