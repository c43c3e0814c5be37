package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect and configure category budgets",
	}
	cmd.AddCommand(newBudgetStatusCmd(a), newBudgetSetCmd(a), newBudgetImportCmd(a))
	return cmd
}

func newBudgetStatusCmd(a *app) *cobra.Command {
	var (
		category int64
		period   string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spending against the ceiling for a period",
		Long: `Without --category, every budget configured for the period is listed.

Example:
  ledgerctl budget status --period 2026-03
  ledgerctl budget status --period 2026-03 --category 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ym := core.MonthOf(a.today())
			if period != "" {
				var err error
				if ym, err = core.ParseYearMonth(period); err != nil {
					return fmt.Errorf("--period: %w", err)
				}
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				var statuses []core.BudgetStatus
				if category != 0 {
					st, err := l.Budgets.GetBudgetStatus(ctx, a.owner, category, ym)
					if err != nil {
						return err
					}
					statuses = append(statuses, st)
				} else {
					var err error
					if statuses, err = l.Budgets.ListBudgetStatuses(ctx, a.owner, ym); err != nil {
						return err
					}
				}
				return printBudgets(out(cmd), statuses)
			})
		},
	}
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().StringVar(&period, "period", "", "period YYYY-MM (default current month)")
	return cmd
}

func printBudgets(w io.Writer, statuses []core.BudgetStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPERIOD\tSPENT\tCEILING\tPERCENT\tSTATUS")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s%%\t%s\n",
			st.CategoryID, st.Period, st.Spent, st.Ceiling, st.Percent.StringFixed(2), st.Status)
	}
	return tw.Flush()
}

func newBudgetSetCmd(a *app) *cobra.Command {
	var (
		category        int64
		period, ceiling string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace the ceiling of a category for a period",
		Long: `Example:
  ledgerctl budget set --category 4 --period 2026-03 --ceiling 250`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ym, err := core.ParseYearMonth(period)
			if err != nil {
				return fmt.Errorf("--period: %w", err)
			}
			m, err := moneyFlag("ceiling", ceiling)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				err := l.Budgets.SetBudget(ctx, core.Budget{OwnerID: a.owner, CategoryID: category, Period: ym, Ceiling: m})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "budget for category %d in %s set to %s\n", category, ym, m)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().StringVar(&period, "period", "", "period YYYY-MM")
	cmd.Flags().StringVar(&ceiling, "ceiling", "", "ceiling amount, e.g. 250.00")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("ceiling")
	return cmd
}

func newBudgetImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Upsert budgets from a YAML file (- for stdin)",
		Long: `The file lists ceilings per category; rows without a period use the
file's period. The import is all or nothing.

  period: 2026-03
  budgets:
    - category_id: 4
      ceiling: "250.00"
    - category_id: 7
      ceiling: "80"
      period: 2026-04

Example:
  ledgerctl budget import budgets.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open budget file: %w", err)
				}
				defer f.Close()
				r = f
			}
			budgets, err := services.ParseBudgetFile(r, a.owner)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				if err := l.Budgets.ImportBudgets(ctx, budgets); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "imported %d budgets\n", len(budgets))
				return nil
			})
		},
	}
	return cmd
}
