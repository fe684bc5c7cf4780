package main

import (
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		email string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <analyst-id>",
		Short: "Sign an analyst token for case review",
		Long: `Sign an HS256 token with JWT_SECRET. The analyst id becomes the
reviewer recorded on cases reviewed with the token.

Examples:
  fraudctl token analyst-1
  fraudctl token analyst-1 --ttl 1h --email a1@bank.example`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken([]byte(cfg.JWTSecret), args[0], email, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "analyst email claim")
	cmd.Flags().StringVar(&role, "role", "analyst", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}
