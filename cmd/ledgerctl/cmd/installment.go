package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ledger/internal/services"
)

func newInstallmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installment",
		Short: "Create or cancel installment plans",
	}

	var (
		account, category int64
		desc, total       string
		count             int
		firstDue          string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Split a purchase into monthly installments",
		Long: `Example:
  ledgerctl installment create --account 2 --total 100.00 --count 3 --first-due 2026-02-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := moneyFlag("total", total)
			if err != nil {
				return err
			}
			due, err := a.dateFlag("first-due", firstDue)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				id, err := l.Installments.CreatePlan(ctx, services.CreateInstallmentPlanParams{
					OwnerID:     a.owner,
					AccountID:   account,
					CategoryID:  optionalID(category),
					Description: desc,
					Total:       m,
					Count:       count,
					FirstDue:    due,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "installment plan %d created with %d entries\n", id, count)
				return nil
			})
		},
	}
	create.Flags().Int64Var(&account, "account", 0, "account id")
	create.Flags().Int64Var(&category, "category", 0, "category id (optional)")
	create.Flags().StringVar(&desc, "description", "", "purchase description")
	create.Flags().StringVar(&total, "total", "", "total amount, e.g. 1200.00")
	create.Flags().IntVar(&count, "count", 0, "number of installments (2-60)")
	create.Flags().StringVar(&firstDue, "first-due", "", "first due date YYYY-MM-DD (default today)")
	_ = create.MarkFlagRequired("account")
	_ = create.MarkFlagRequired("total")
	_ = create.MarkFlagRequired("count")

	cancel := &cobra.Command{
		Use:   "cancel PLAN_ID",
		Short: "Deactivate a plan and delete its unsettled future entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				if err := l.Installments.CancelPlan(ctx, id, a.owner, a.today()); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "installment plan %d cancelled\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(create, cancel)
	return cmd
}
