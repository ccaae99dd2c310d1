package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"credipart/internal/amqp"
	"credipart/internal/cli"
	"credipart/internal/config"
	"credipart/internal/export"
	applog "credipart/internal/log"
	"credipart/internal/services"
	"credipart/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap("worker")
	logger.Info("Starting credipart-worker")

	repo := cli.OpenRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerWorker := worker.NewLedgerWorker(repo, openLedger(ctx, logger, cfg))

	reminders := services.NewReminderProcessor(repo, client, services.ReminderProcessorConfig{
		Interval:  cfg.ReminderInterval,
		BatchSize: cfg.ExportBatchSize,
	})
	if err := reminders.Start(ctx); err != nil {
		logger.Error("Failed to start reminder processor", applog.FieldError, err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.Consume(ctx, func(event *amqp.InstallmentEvent) error {
			return ledgerWorker.HandleEvent(ctx, event)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return reminders.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// openLedger picks the ledger backend: Google Sheets when configured, an
// in-memory one otherwise. The memory ledger keeps the worker useful in
// development without credentials.
func openLedger(ctx context.Context, logger *applog.Logger, cfg *config.Config) export.LedgerAppender {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled, using in-memory ledger")
		return export.NewMemoryLedger()
	}
	ledger, err := export.NewGoogleLedger(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets ledger", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets ledger enabled",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleLedgerSheet)
	return ledger
}
