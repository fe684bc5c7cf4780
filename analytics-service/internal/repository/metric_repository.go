package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

// DayTotals are the raw fraud_cases counts for one day.
type DayTotals struct {
	Total        int64
	Blocked      int64
	Reviewed     int64
	AvgRiskScore float64
}

type MetricRepository struct {
	db *sql.DB
}

func NewMetricRepository(db *sql.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// CountCases aggregates the cases created on date's UTC calendar day.
func (r *MetricRepository) CountCases(ctx context.Context, date time.Time) (DayTotals, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE decision = 'BLOCK'),
			COUNT(*) FILTER (WHERE decision = 'REVIEW'),
			COALESCE(AVG(risk_score), 0)::float8
		FROM fraud_cases
		WHERE created_at >= $1 AND created_at < $2
	`
	var t DayTotals
	if err := r.db.QueryRowContext(ctx, query, start, start.AddDate(0, 0, 1)).
		Scan(&t.Total, &t.Blocked, &t.Reviewed, &t.AvgRiskScore); err != nil {
		return DayTotals{}, fmt.Errorf("failed to count fraud cases: %w", err)
	}
	return t, nil
}

// Upsert writes the rollup for m.MetricDate, replacing an earlier run.
func (r *MetricRepository) Upsert(ctx context.Context, m *models.AggregatedMetric) error {
	query := `
		INSERT INTO aggregated_metrics
			(metric_date, total_transactions, fraud_count, review_count, block_count, fraud_rate, avg_risk_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (metric_date) DO UPDATE SET
			total_transactions = EXCLUDED.total_transactions,
			fraud_count        = EXCLUDED.fraud_count,
			review_count       = EXCLUDED.review_count,
			block_count        = EXCLUDED.block_count,
			fraud_rate         = EXCLUDED.fraud_rate,
			avg_risk_score     = EXCLUDED.avg_risk_score
	`
	_, err := r.db.ExecContext(ctx, query,
		m.MetricDate.Format(time.DateOnly), m.TotalTransactions, m.FraudCount, m.ReviewCount,
		m.BlockCount, m.FraudRate, m.AvgRiskScore, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert aggregated metric: %w", err)
	}
	return nil
}

// ListRecent returns up to days rollups, newest first.
func (r *MetricRepository) ListRecent(ctx context.Context, days int) ([]models.AggregatedMetric, error) {
	query := `
		SELECT metric_date, total_transactions, fraud_count, review_count, block_count,
		       fraud_rate::float8, avg_risk_score::float8, created_at
		FROM aggregated_metrics
		ORDER BY metric_date DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregated metrics: %w", err)
	}
	defer rows.Close()

	out := []models.AggregatedMetric{}
	for rows.Next() {
		var m models.AggregatedMetric
		if err := rows.Scan(&m.MetricDate, &m.TotalTransactions, &m.FraudCount, &m.ReviewCount,
			&m.BlockCount, &m.FraudRate, &m.AvgRiskScore, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan aggregated metric: %w", err)
		}
		m.MetricDate = m.MetricDate.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
