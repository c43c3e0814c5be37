package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

func newEntryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record manual entries",
	}

	var (
		account, category        int64
		kind, amount, date, desc string
		note, method             string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Long: `Example:
  ledgerctl entry add --account 2 --amount 35.40 --description Dinner --category 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := moneyFlag("amount", amount)
			if err != nil {
				return err
			}
			d, err := a.dateFlag("date", date)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				id, err := l.Entries.RecordEntry(ctx, services.RecordEntryParams{
					OwnerID:       a.owner,
					AccountID:     account,
					CategoryID:    optionalID(category),
					Kind:          core.Kind(kind),
					Amount:        m,
					Date:          d,
					Description:   desc,
					Note:          note,
					PaymentMethod: method,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "entry %d recorded\n", id)
				return nil
			})
		},
	}
	add.Flags().Int64Var(&account, "account", 0, "account id")
	add.Flags().Int64Var(&category, "category", 0, "category id (optional)")
	add.Flags().StringVar(&kind, "kind", string(core.Expense), "income or expense")
	add.Flags().StringVar(&amount, "amount", "", "amount, e.g. 35.40")
	add.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	add.Flags().StringVar(&desc, "description", "", "description")
	add.Flags().StringVar(&note, "note", "", "note")
	add.Flags().StringVar(&method, "payment-method", "", "payment method label")
	_ = add.MarkFlagRequired("account")
	_ = add.MarkFlagRequired("amount")

	cmd.AddCommand(add)
	return cmd
}
