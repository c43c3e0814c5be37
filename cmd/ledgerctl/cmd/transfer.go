package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/services"
)

func newTransferCmd(a *app) *cobra.Command {
	var (
		from, to                int64
		amount, date, desc, note string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		Long: `Records a paired expense and income sharing one transfer group.

Example:
  ledgerctl transfer --from 1 --to 3 --amount 200`,
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
				group, err := l.Transfers.CreateTransfer(ctx, services.TransferParams{
					OwnerID:       a.owner,
					FromAccountID: from,
					ToAccountID:   to,
					Amount:        m,
					Date:          d,
					Description:   desc,
					Note:          note,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "transfer %s recorded\n", group)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "source account id")
	cmd.Flags().Int64Var(&to, "to", 0, "destination account id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 200.00")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "description", "", "description (default Transfer)")
	cmd.Flags().StringVar(&note, "note", "", "note")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newSettleCmd(a *app) *cobra.Command {
	var (
		entry, bank int64
		date        string
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Pay a credit card expense from a bank account",
		Long: `Example:
  ledgerctl settle --entry 42 --bank 1 --date 2026-04-05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dateFlag("date", date)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, l *services.Ledger) error {
				group, err := l.Transfers.SettleCreditCardExpense(ctx, services.SettleParams{
					EntryID:       entry,
					OwnerID:       a.owner,
					BankAccountID: bank,
					SettleDate:    d,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "entry %d settled by transfer %s\n", entry, group)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&entry, "entry", 0, "credit card expense entry id")
	cmd.Flags().Int64Var(&bank, "bank", 0, "paying bank account id")
	cmd.Flags().StringVar(&date, "date", "", "settlement date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("bank")
	return cmd
}
