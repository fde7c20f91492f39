package main

import (
	"context"
	"errors"
	"os"
	"time"

	"manicash/internal/cli"
	"manicash/internal/ledger"
	mlog "manicash/internal/log"
	gsheet "manicash/internal/sheets/google"
	"manicash/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap(mlog.ComponentWorker)
	logger.Info("Starting sync-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets disabled - set GOOGLE_SPREADSHEET_ID to run the sync worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP disabled - set AMQP_URL to run the sync worker")
		os.Exit(1)
	}

	ctx := context.Background()
	provider := cli.SignIn(ctx, logger, cfg)

	repo, store, err := cli.OpenStore(ctx, logger, cfg, provider)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer store.Close()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Warn("Could not write sheet header", "error", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient := cli.NewAMQPClient(logger, cfg)
	if amqpClient == nil {
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(ledger.New(repo), sheetsClient, 50)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	go func() {
		err := amqpClient.Consume(ctx, syncWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Sync-worker shutdown complete")
}
