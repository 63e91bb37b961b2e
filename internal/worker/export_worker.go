// Package worker refreshes the exported balance charts when operations
// change.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"comptes/internal/amqp"
	"comptes/internal/buckets"
	"comptes/internal/core"
	"comptes/internal/export"
)

// Store is the read surface the worker needs.
type Store interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListOperations(ctx context.Context, accountID int64) ([]core.BankOperation, error)
}

// SeriesWriter receives the recomputed series; the Google Sheets exporter
// implements it.
type SeriesWriter interface {
	Export(ctx context.Context, series []export.AccountSeries) error
}

// ExportWorker recomputes every account's balance evolution and exports
// it. It runs on two triggers: an operation change event, and a periodic
// full refresh that covers lost messages.
type ExportWorker struct {
	store      Store
	exporter   SeriesWriter
	maxPeriods int
}

func NewExportWorker(store Store, exporter SeriesWriter, maxPeriods int) *ExportWorker {
	return &ExportWorker{
		store:      store,
		exporter:   exporter,
		maxPeriods: maxPeriods,
	}
}

// HandleChange processes one operation change event. The message only
// tells us something changed; the worker always recomputes from storage.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.OperationChangedMessage) error {
	slog.InfoContext(ctx, "processing operation changed message",
		"accountId", msg.AccountID,
		"operationId", msg.OperationID,
		"action", msg.Action)
	return w.ExportAll(ctx)
}

// ExportAll rebuilds the balance series of every account and writes them
// out in one export.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	if w.exporter == nil {
		slog.WarnContext(ctx, "no exporter configured, skipping export")
		return nil
	}

	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	now := time.Now()
	series := make([]export.AccountSeries, 0, len(accounts))
	for _, account := range accounts {
		ops, err := w.store.ListOperations(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("list operations for account %d: %w", account.ID, err)
		}
		bs, err := buckets.BalanceEvolution(account.StartingBalance, ops, now, w.maxPeriods)
		if err != nil {
			return fmt.Errorf("balance evolution for account %d: %w", account.ID, err)
		}
		series = append(series, export.AccountSeries{Account: account.Name, Buckets: bs})
	}

	if err := w.exporter.Export(ctx, series); err != nil {
		return fmt.Errorf("export series: %w", err)
	}
	return nil
}

// RunPeriodic exports on a fixed interval until ctx ends. Failures are
// logged and retried on the next tick.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportAll(ctx); err != nil {
				slog.ErrorContext(ctx, "periodic export failed", "error", err)
			}
		}
	}
}
