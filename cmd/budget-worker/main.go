package main

import (
	"context"
	"errors"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting budget-worker", "backend", cfg.DataBackend)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	svc := services.NewBudgetService(res.Store, services.WithLogger(logger))
	mirrorWorker := worker.NewMirrorWorker(svc, cfg.MirrorBatchSize, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	logger.Info("Performing startup reconciliation...")
	if err := mirrorWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	}

	if res.AMQP != nil {
		go func() {
			err := res.AMQP.ConsumePaymentRecorded(ctx, mirrorWorker.HandlePaymentRecorded)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption stopped", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP not configured, relying on periodic reconciliation only")
	}

	go mirrorWorker.Run(ctx, cfg.MirrorInterval)

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped")
}
