package main

import (
	"context"
	"fmt"
	"io"

	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	"github.com/spf13/cobra"
)

type hotListReader interface {
	HighRiskTransactions(ctx context.Context, limit int64) ([]string, error)
}

func hotlistCmd() *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "hotlist",
		Short: "Print the most recent HIGH risk transaction ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := sharedredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer client.Close()

			counter := sharedredis.NewRedisCounter(client.Client, cfg.RateLimitWindow)
			return printHotList(cmd.Context(), cmd.OutOrStdout(), sharedredis.NewRiskContextCache(client.Client, counter), limit)
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 20, "number of transactions to show")
	return cmd
}

func printHotList(ctx context.Context, w io.Writer, reader hotListReader, limit int64) error {
	ids, err := reader.HighRiskTransactions(ctx, limit)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "no high-risk transactions in the last 24h")
		return nil
	}
	for i, id := range ids {
		fmt.Fprintf(w, "%3d  %s\n", i+1, id)
	}
	return nil
}
