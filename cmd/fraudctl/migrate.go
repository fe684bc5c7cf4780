package main

import (
	"database/sql"
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <command> [args]",
		Short: "Run database migrations",
		Long: `Run goose migrations against DATABASE_URL.

Examples:
  fraudctl migrate up
  fraudctl migrate status
  fraudctl migrate down-to 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			return migrations.Run(cmd.Context(), db, args[0], args[1:]...)
		},
	}
}
