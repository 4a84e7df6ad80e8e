package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch cfg.DataBackend {
			case "sqlite":
				if err := storage.RunSQLiteMigrations(cfg.SQLiteDBPath); err != nil {
					return err
				}
			case "postgres":
				if err := storage.RunPostgresMigrations(cfg.DatabaseURL); err != nil {
					return err
				}
			default:
				return fmt.Errorf("backend %q has no migrations", cfg.DataBackend)
			}
			logger.Info("Migrations applied", "backend", cfg.DataBackend)
			return nil
		},
	}
}
