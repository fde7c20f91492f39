// Package cli provides common CLI initialization utilities shared by
// cmd/manicash-seed, cmd/fixedcost-worker and cmd/sync-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"manicash/internal/ai"
	"manicash/internal/amqp"
	"manicash/internal/backend"
	"manicash/internal/config"
	"manicash/internal/household"
	mlog "manicash/internal/log"
	"manicash/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging for component and sets it as
// the default logger.
func SetupLogger(component string, level slog.Level) *mlog.Logger {
	logger := mlog.New(mlog.Config{Level: level, Component: component, Output: os.Stdout})
	mlog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *mlog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Bootstrap loads the environment and configuration and returns a logger
// for component at the configured level. It exits on invalid configuration.
func Bootstrap(component string) (*mlog.Logger, *config.Config) {
	LoadEnvFile()
	logger := SetupLogger(component, slog.LevelInfo)
	cfg := LoadAndValidateConfig(logger)
	return SetupLogger(component, cfg.Level()), cfg
}

// SignIn returns the identity provider for the configured household, signed
// in when HOUSEHOLD_ID is set.
func SignIn(ctx context.Context, logger *mlog.Logger, cfg *config.Config) household.Provider {
	p := household.NewStaticProvider(household.Identity{ID: cfg.HouseholdID, Name: cfg.HouseholdID})
	if cfg.HouseholdID == "" {
		logger.Info("No household configured, using the shared namespace")
		return p
	}
	if _, err := p.SignIn(ctx); err != nil {
		logger.Warn("Sign-in failed, using the shared namespace", "error", err)
	}
	return p
}

// OpenStore creates the configured backend scoped to the signed-in
// household and wraps it in a Repo.
func OpenStore(ctx context.Context, logger *mlog.Logger, cfg *config.Config, p household.Provider) (*storage.Repo, *backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	bcfg.Namespace = household.Namespace(p)

	factory := backend.NewFactory(logger.WithComponent(mlog.ComponentBackend).Logger)
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return storage.NewRepo(res.Store), res, nil
}

// NewGenerator returns the text generator. Without an API key every call
// reports ai.ErrUnavailable and callers fall back to fixed texts.
func NewGenerator(logger *mlog.Logger, cfg *config.Config) ai.Generator {
	client := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.AIModelPro)
	if !client.Available() {
		logger.Info("AI commentary disabled, no API key configured")
	} else {
		logger.Info("AI commentary enabled", "model", cfg.AIModel, "base_url", ai.ResolveBaseURL(cfg.AIBaseURL))
	}
	return client
}

// NewAMQPClient connects to the broker, or returns nil when AMQP is disabled
// or unreachable.
func NewAMQPClient(logger *mlog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - ledger events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *mlog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
