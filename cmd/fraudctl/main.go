// Command fraudctl is the operator tool for the fraud pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/distributed-fraud-detection/fraud-detection/shared/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fraudctl",
		Short:         "Operate the fraud detection pipeline",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rollupCmd())
	rootCmd.AddCommand(hotlistCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	return config.Load("0")
}
