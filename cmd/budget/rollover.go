package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/budget"
	"budget/internal/localstate"
	"budget/internal/services"
)

func rolloverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Detect and acknowledge a new budget month",
		Long: `Compare the last visited month, kept in a local TOML state file, with today.
Nothing is created automatically; "check" lists the recurring entries to re-enter.`,
	}
	cmd.PersistentFlags().String("owner", "", "owner id (required)")
	cmd.PersistentFlags().String("state-file", "", "state file path (default $STATE_FILE or the XDG state dir)")
	_ = cmd.MarkPersistentFlagRequired("owner")

	cmd.AddCommand(rolloverCheckCmd())
	cmd.AddCommand(rolloverAckCmd())
	return cmd
}

func stateFile(cmd *cobra.Command) *localstate.File {
	path, _ := cmd.Flags().GetString("state-file")
	if path == "" {
		path = cfg.StateFile
	}
	if path == "" {
		path = localstate.DefaultPath()
	}
	return localstate.New(path)
}

func rolloverCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether a new month started since the last visit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			detector := services.NewRolloverDetector(stateFile(cmd), nil, logger)
			check, err := detector.Check(cmd.Context(), owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !check.IsNewMonth {
				fmt.Fprintf(out, "Still in %s.\n", monthLabel(check.Current))
				return nil
			}
			fmt.Fprintf(out, "New month: %s (last visit %s).\n",
				monthLabel(check.Current), monthLabel(budget.MonthWindow{Month: *check.LastMonth, Year: *check.LastYear}))

			backendCfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
			if err != nil {
				return err
			}
			defer func() { _ = res.Cleanup() }()

			tpl, err := services.NewBudgetService(res.Store, services.WithLogger(logger)).RecurringTemplates(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return printTemplates(out, tpl)
		},
	}
}

func rolloverAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack",
		Short: "Record the current month as visited",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			detector := services.NewRolloverDetector(stateFile(cmd), nil, logger)
			current, err := detector.Acknowledge(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s.\n", monthLabel(current))
			return nil
		},
	}
}

func monthLabel(w budget.MonthWindow) string {
	return fmt.Sprintf("%s %d", budget.MonthName(w.Month), w.Year)
}

func printTemplates(w io.Writer, tpl services.RecurringTemplates) error {
	if len(tpl.Income) == 0 && len(tpl.Expenses) == 0 {
		fmt.Fprintln(w, "No recurring entries.")
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tpl)
}
