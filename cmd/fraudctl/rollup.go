package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func rollupCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Run the daily fraud rollup on the analytics service",
		Long: `Ask the analytics service to aggregate one day of fraud cases.
Without --date the previous UTC day is rolled up.

Examples:
  fraudctl rollup
  fraudctl rollup --date 2026-03-10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if _, err := time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runRollup(cmd, &http.Client{Timeout: 30 * time.Second}, cfg.AnalyticsServiceURL, date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to aggregate (YYYY-MM-DD)")
	return cmd
}

func runRollup(cmd *cobra.Command, client *http.Client, baseURL, date string) error {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/analytics/run-batch"
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call analytics service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rollup failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result struct {
		Metric struct {
			MetricDate        time.Time `json:"metricDate"`
			TotalTransactions int64     `json:"totalTransactions"`
			BlockCount        int64     `json:"blockCount"`
			ReviewCount       int64     `json:"reviewCount"`
			FraudRate         float64   `json:"fraudRate"`
			AvgRiskScore      float64   `json:"avgRiskScore"`
		} `json:"metric"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	m := result.Metric
	fmt.Fprintf(cmd.OutOrStdout(), "%s  total=%d blocked=%d review=%d fraud_rate=%.4f avg_risk=%.4f\n",
		m.MetricDate.Format(time.DateOnly), m.TotalTransactions, m.BlockCount, m.ReviewCount, m.FraudRate, m.AvgRiskScore)
	return nil
}
