package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var (
		name, typ  string
		closingDay int
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Long: `Credit cards may carry a statement closing day (1-31).

Example:
  ledgerctl account add --name Checking --type bank
  ledgerctl account add --name Visa --type credit_card --closing-day 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				id, err := l.Accounts.CreateAccount(ctx, core.Account{
					OwnerID:    a.owner,
					Name:       name,
					Type:       core.AccountType(typ),
					ClosingDay: closingDay,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "account %d created\n", id)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "account name")
	add.Flags().StringVar(&typ, "type", string(core.Bank), "cash, bank, credit_card or other")
	add.Flags().IntVar(&closingDay, "closing-day", 0, "statement closing day for credit cards")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	var name, kind string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				id, err := l.Accounts.CreateCategory(ctx, core.Category{OwnerID: a.owner, Name: name, Kind: core.Kind(kind)})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "category %d created\n", id)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "category name")
	add.Flags().StringVar(&kind, "kind", string(core.Expense), "income or expense")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

func newCompetenceCmd(a *app) *cobra.Command {
	var (
		account int64
		date    string
	)
	cmd := &cobra.Command{
		Use:   "competence",
		Short: "Show the reporting period an entry on an account would get",
		Long: `Example:
  ledgerctl competence --account 2 --date 2025-06-26`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dateFlag("date", date)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				if _, err := l.Accounts.GetAccount(ctx, a.owner, account); err != nil {
					return err
				}
				period, err := l.Accounts.ComputeCompetencePeriod(ctx, account, d)
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), period)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&account, "account", 0, "account id")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
