package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/services"
)

func newOutboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect the ledger event outbox",
	}
	cmd.AddCommand(newOutboxStatsCmd(a), newOutboxRetryCmd(a))
	return cmd
}

// relay returns an outbox relay with no publisher; it serves queue
// maintenance only and must not be started.
func (a *app) relay() *services.EventRelay {
	return services.NewEventRelay(a.repo, nil, services.DefaultEventRelayConfig())
}

func newOutboxStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count outbox events by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, _ *services.Ledger) error {
				stats, err := a.relay().Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "pending=%d processing=%d completed=%d failed=%d\n",
					stats.Pending, stats.Processing, stats.Completed, stats.Failed)
				return nil
			})
		},
	}
}

func newOutboxRetryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Requeue events that exhausted their publish attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, _ *services.Ledger) error {
				n, err := a.relay().RetryFailed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "%d events requeued\n", n)
				return nil
			})
		},
	}
}
