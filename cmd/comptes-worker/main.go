package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"comptes/internal/amqp"
	"comptes/internal/cli"
	"comptes/internal/export"
	"comptes/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exporter worker.SeriesWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := export.NewSheetsExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("failed to initialize sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = sheets
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewExportWorker(repo, exporter, 12)

	// One full export at startup so the sheet reflects anything missed
	// while the worker was down.
	if err := w.ExportAll(ctx); err != nil {
		logger.Error("initial export failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeOperationChanged(ctx, func(msg *amqp.OperationChangedMessage) error {
			return w.HandleChange(ctx, msg)
		})
	})

	g.Go(func() error {
		return w.RunPeriodic(ctx, cfg.ExportInterval)
	})

	logger.Info("export worker started",
		"queue", cfg.AMQPQueue,
		"interval", cfg.ExportInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
