package main

import (
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/cli"
	"ledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	logger.Info("Starting ledger-worker",
		"recurring_interval", cfg.RecurringInterval,
		"statement_aware", cfg.RecurringStatementAware,
		"publishing", cfg.PublishingEnabled())

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ledger := cli.NewLedger(repo, cfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ledger.Recurring.Run(gctx, cfg.RecurringInterval, cfg.RecurringBatchSize, time.Now)
	})

	janitor := cache.NewJanitor(ledger.Accounts.Cache())
	g.Go(func() error {
		janitor.Run(gctx, cfg.AccountCacheTTL)
		return nil
	})

	if cfg.PublishingEnabled() {
		g.Go(func() error {
			client, err := amqp.ConnectWithRetry(gctx, cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			defer client.Close()

			relay := services.NewEventRelay(repo, client, services.EventRelayConfig{
				PollInterval:    cfg.OutboxPollInterval,
				BatchSize:       cfg.OutboxBatchSize,
				MaxRetries:      cfg.OutboxMaxRetries,
				CleanupInterval: time.Hour,
				CleanupAge:      24 * time.Hour,
			})
			return relay.Run(gctx)
		})
	} else {
		logger.Info("AMQP disabled - ledger events stay in the outbox")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("ledger-worker shutdown complete")
}
