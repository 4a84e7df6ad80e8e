// Package cli holds the bootstrap steps shared by cmd/budget and
// cmd/budget-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/budget"
	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the slog
// default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads the environment configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewSnapshotCache returns the per-owner snapshot cache sized from cfg.
// A zero TTL disables caching.
func NewSnapshotCache(cfg *config.Config) *cache.LRU[budget.Snapshot] {
	if cfg.CacheTTL <= 0 {
		return nil
	}
	return cache.NewLRU[budget.Snapshot](cfg.CacheSize, cfg.CacheTTL)
}

// ServiceOptions collects the BudgetService options derived from cfg.
func ServiceOptions(logger *log.Logger, snapshots *cache.LRU[budget.Snapshot], publisher services.PaymentPublisher) []services.Option {
	opts := []services.Option{services.WithLogger(logger)}
	if snapshots != nil {
		opts = append(opts, services.WithCache(snapshots))
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return opts
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once the
// signal arrives, cleanup runs with a deadline of timeout, and done is closed
// after it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
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

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	fmt.Fprintln(os.Stderr, msg+":", err)
	os.Exit(1)
}
