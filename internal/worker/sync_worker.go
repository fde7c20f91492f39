// Package worker mirrors recorded transactions into the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"manicash/internal/amqp"
	"manicash/internal/core"
	"manicash/internal/sheets"
)

// TransactionSource lists committed transactions for the catch-up pass.
type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListWallets(ctx context.Context) ([]core.Wallet, error)
}

// SyncWorker appends recorded transactions to the sheet mirror.
type SyncWorker struct {
	source    TransactionSource
	mirror    sheets.Mirror
	batchSize int
}

func NewSyncWorker(source TransactionSource, mirror sheets.Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{source: source, mirror: mirror, batchSize: batchSize}
}

// HandleEvent processes a single ledger event from AMQP. Events other than
// transaction.recorded are acknowledged and ignored.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if event.Type != amqp.TransactionRecorded {
		slog.DebugContext(ctx, "Ignoring ledger event", "type", event.Type)
		return nil
	}
	if event.Transaction == nil {
		slog.WarnContext(ctx, "Transaction event without transaction, dropping")
		return nil
	}

	wallet := ""
	if event.Wallet != nil {
		wallet = event.Wallet.Name
	}
	return w.sync(ctx, *event.Transaction, wallet)
}

// StartupSyncCheck mirrors the most recent transactions missing from the
// sheet. It recovers from events lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	wallets, err := w.source.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	names := make(map[string]string, len(wallets))
	for _, wl := range wallets {
		names[wl.ID] = wl.Name
	}

	if len(txs) > w.batchSize*5 {
		txs = txs[len(txs)-w.batchSize*5:]
	}

	successCount, errorCount := 0, 0
	for _, tx := range txs {
		if err := w.sync(ctx, tx, names[tx.WalletID]); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(txs),
		"checked", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) sync(ctx context.Context, tx core.Transaction, wallet string) error {
	exists, err := w.mirror.Contains(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("check mirror: %w", err)
	}
	if exists {
		slog.DebugContext(ctx, "Transaction already mirrored", "id", tx.ID)
		return nil
	}

	ref, err := w.mirror.Append(ctx, sheets.NewRow(tx, wallet))
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"category", tx.Category,
		"amount", tx.Amount.String())
	return nil
}
