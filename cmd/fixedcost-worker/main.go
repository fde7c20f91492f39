package main

import (
	"context"
	"os"
	"time"

	"manicash/internal/cache"
	"manicash/internal/cli"
	mlog "manicash/internal/log"
	"manicash/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(mlog.ComponentFixedCost)
	logger.Info("Starting fixedcost-worker")

	ctx := context.Background()
	provider := cli.SignIn(ctx, logger, cfg)

	repo, store, err := cli.OpenStore(ctx, logger, cfg, provider)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer store.Close()

	// Events go through the outbox so a broker outage does not drop them.
	var (
		publisher services.Publisher
		outbox    *services.Outbox
	)
	if amqpClient := cli.NewAMQPClient(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		outbox = services.NewOutbox(amqpClient, services.DefaultOutboxConfig())
		publisher = outbox
	}

	svc := services.NewFinanceService(repo, cli.NewGenerator(logger, cfg), publisher,
		services.WithHousehold(cfg.HouseholdID),
		services.WithInsightCache(cfg.InsightCacheSize, cfg.InsightCacheTTL))

	cacheManager := cache.NewManager(logger.WithComponent(mlog.ComponentCache).Logger)
	cacheManager.Register(svc.Commentator().Cache())
	cacheManager.StartCleanup(time.Hour)
	defer cacheManager.Stop()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if outbox != nil {
			if err := outbox.Stop(shutdownCtx); err != nil {
				logger.Warn("Event outbox did not stop cleanly", "error", err)
			}
		}
	})
	if outbox != nil {
		if err := outbox.Start(ctx); err != nil {
			logger.Error("Failed to start event outbox", "error", err)
		}
	}

	interval := cfg.FixedCostInterval
	logger.Info("Fixed cost processor configured",
		"interval", interval,
		"autopay", cfg.FixedCostAutoPay,
		"wallet_id", cfg.DefaultWalletID)

	process := func(now time.Time) {
		count, err := svc.ProcessDueFixedCosts(ctx, now, cfg.FixedCostAutoPay, cfg.DefaultWalletID)
		if err != nil {
			logger.Error("Fixed cost processing failed", "error", err)
			return
		}
		logger.Info("Fixed cost processing complete",
			"handled", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	logger.Info("Running initial fixed cost check...")
	process(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				process(now)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Fixedcost-worker shutdown complete")
}
