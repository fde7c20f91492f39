package main

import (
	"context"
	"flag"
	"os"

	"manicash/internal/cli"
	"manicash/internal/household"
	mlog "manicash/internal/log"
)

func main() {
	reset := flag.Bool("reset", false, "remove users and wallets before seeding")
	flag.Parse()

	logger, cfg := cli.Bootstrap(mlog.ComponentHousehold)

	ctx := context.Background()
	provider := cli.SignIn(ctx, logger, cfg)

	repo, store, err := cli.OpenStore(ctx, logger, cfg, provider)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer store.Close()

	if *reset {
		if err := household.NewDirectory(repo).Reset(ctx); err != nil {
			logger.Error("Failed to reset household", "error", err)
			os.Exit(1)
		}
		logger.Info("Removed users and wallets")
	}

	written, err := household.Seed(ctx, repo)
	if err != nil {
		logger.Error("Failed to seed household", "error", err)
		os.Exit(1)
	}
	logger.Info("Seed complete",
		mlog.FieldOperation, mlog.OpSeed,
		mlog.FieldHousehold, household.Namespace(provider),
		"written", len(written))
}
