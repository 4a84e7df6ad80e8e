package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/services"
	gsheet "budget/internal/sheets/google"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current month's transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			outPath, _ := cmd.Flags().GetString("out")
			toSheets, _ := cmd.Flags().GetBool("sheets")

			backendCfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
			if err != nil {
				return err
			}
			defer func() { _ = res.Cleanup() }()
			svc := services.NewBudgetService(res.Store, services.WithLogger(logger))

			if toSheets {
				if !cfg.SheetsEnabled() {
					return fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
				}
				exporter, err := gsheet.New(cmd.Context(), gsheet.Options{
					SpreadsheetID:      cfg.GoogleSpreadsheetID,
					SheetName:          cfg.GoogleSheetName,
					ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
					ServiceAccountFile: cfg.GoogleServiceAccountFile,
				}, logger)
				if err != nil {
					return err
				}
				n, err := svc.ExportToSheet(cmd.Context(), owner, exporter)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s.\n", n, exporter.SheetName())
				return nil
			}

			if outPath == "" || outPath == "-" {
				_, err := svc.ExportCSV(cmd.Context(), owner, cmd.OutOrStdout())
				return err
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			name, err := svc.ExportCSV(cmd.Context(), owner, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			logger.Info("Export written", "path", outPath, "suggested_name", name)
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id (required)")
	cmd.Flags().String("out", "", "output file (default stdout)")
	cmd.Flags().Bool("sheets", false, "write to the configured Google Sheets tab instead")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
