package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			owner, _ := cmd.Flags().GetString("owner")
			m, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
			if err != nil {
				return err
			}
			token, err := m.Generate(owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
