package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

// RiskProfileRepository keeps one scoring snapshot per user.
type RiskProfileRepository struct {
	db *sql.DB
}

func NewRiskProfileRepository(db *sql.DB) *RiskProfileRepository {
	return &RiskProfileRepository{db: db}
}

// Upsert creates or replaces the user's profile in a single statement.
func (r *RiskProfileRepository) Upsert(ctx context.Context, p *models.RiskProfile) error {
	query := `
		INSERT INTO risk_profiles (user_id, risk_score, risk_level, recent_fraud_count, transaction_frequency, top_risk_factor, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			risk_score            = EXCLUDED.risk_score,
			risk_level            = EXCLUDED.risk_level,
			recent_fraud_count    = EXCLUDED.recent_fraud_count,
			transaction_frequency = EXCLUDED.transaction_frequency,
			top_risk_factor       = EXCLUDED.top_risk_factor,
			last_updated          = EXCLUDED.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.RiskScore, string(p.RiskLevel),
		p.RecentFraudCount, p.TransactionFrequency,
		sql.NullString{String: p.TopRiskFactor, Valid: p.TopRiskFactor != ""},
		p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert risk profile: %w", err)
	}
	return nil
}

func (r *RiskProfileRepository) GetByUser(ctx context.Context, userID string) (*models.RiskProfile, error) {
	query := `
		SELECT user_id, risk_score, risk_level, recent_fraud_count, transaction_frequency, top_risk_factor, last_updated
		FROM risk_profiles
		WHERE user_id = $1
	`
	var p models.RiskProfile
	var level string
	var top sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.RiskScore, &level,
		&p.RecentFraudCount, &p.TransactionFrequency,
		&top, &p.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("risk profile", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk profile: %w", err)
	}
	p.RiskLevel = models.RiskLevel(level)
	p.TopRiskFactor = top.String
	return &p, nil
}
