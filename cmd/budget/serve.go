package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/auth"
	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
			if err != nil {
				return err
			}

			backendCfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
			if err != nil {
				return err
			}

			snapshots := cli.NewSnapshotCache(cfg)
			var publisher services.PaymentPublisher
			if res.AMQP != nil {
				publisher = res.AMQP
			}
			svc := services.NewBudgetService(res.Store, cli.ServiceOptions(logger, snapshots, publisher)...)
			rollover := services.NewRolloverDetector(res.Store, nil, logger)

			srv := apphttp.NewServer(apphttp.Options{
				Addr:               ":" + cfg.Port,
				Budget:             svc,
				Rollover:           rollover,
				Auth:               jwtManager,
				Ready:              res.Store.Ping,
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				Logger:             logger,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if snapshots != nil {
				go cache.NewJanitor(logger.WithComponent(log.ComponentCache).Logger, snapshots).Run(ctx, time.Minute)
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Server shutdown error", "error", err)
				}
			}()

			logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp_enabled", res.AMQP != nil)
			err = srv.ListenAndServe()
			cancel()
			if cleanupErr := res.Cleanup(); cleanupErr != nil {
				logger.Error("Backend cleanup failed", "error", cleanupErr)
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}
