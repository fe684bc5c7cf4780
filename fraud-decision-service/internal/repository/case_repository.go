package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

const caseColumns = `case_id, transaction_id, user_id, risk_score, decision, status, flag_reason, reviewed_by, created_at, updated_at`

// CaseWriteRepository owns every mutation of fraud_cases.
type CaseWriteRepository struct {
	db *sql.DB
}

func NewCaseWriteRepository(db *sql.DB) *CaseWriteRepository {
	return &CaseWriteRepository{db: db}
}

// Create inserts a case unless one already exists for the transaction. The
// second return value is false when the existing case is returned instead.
func (r *CaseWriteRepository) Create(ctx context.Context, fc *models.FraudCase) (*models.FraudCase, bool, error) {
	query := `
		INSERT INTO fraud_cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING ` + caseColumns
	created, err := scanCase(r.db.QueryRowContext(ctx, query,
		fc.CaseID, fc.TransactionID, fc.UserID, fc.RiskScore,
		string(fc.Decision), string(fc.Status),
		nullStringPtr(fc.FlagReason), nullStringPtr(fc.ReviewedBy),
		fc.CreatedAt, fc.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create fraud case: %w", err)
	}

	existing, err := getCaseBy(ctx, r.db, "transaction_id", fc.TransactionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Review applies an analyst decision. Only PENDING cases move; the guard is
// part of the UPDATE so concurrent reviews cannot both succeed.
func (r *CaseWriteRepository) Review(ctx context.Context, caseID string, status models.CaseStatus, reviewedBy string, at time.Time) (*models.FraudCase, error) {
	query := `
		UPDATE fraud_cases SET status = $2, reviewed_by = $3, updated_at = $4
		WHERE case_id = $1 AND status = $5
		RETURNING ` + caseColumns
	fc, err := scanCase(r.db.QueryRowContext(ctx, query,
		caseID, string(status), reviewedBy, at, string(models.CasePending),
	))
	if err == nil {
		return fc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to review fraud case: %w", err)
	}

	current, err := getCaseBy(ctx, r.db, "case_id", caseID)
	if err != nil {
		return nil, err
	}
	return nil, apperrors.InvalidTransition("fraud case", caseID, string(current.Status), string(status))
}

// column is always one of the two fixed key names above.
func getCaseBy(ctx context.Context, db *sql.DB, column, value string) (*models.FraudCase, error) {
	query := `SELECT ` + caseColumns + ` FROM fraud_cases WHERE ` + column + ` = $1` // #nosec G202 -- fixed column names
	fc, err := scanCase(db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("fraud case", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fraud case: %w", err)
	}
	return fc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.FraudCase, error) {
	var fc models.FraudCase
	var decision, status string
	var flagReason, reviewedBy sql.NullString
	if err := row.Scan(
		&fc.CaseID, &fc.TransactionID, &fc.UserID, &fc.RiskScore,
		&decision, &status, &flagReason, &reviewedBy,
		&fc.CreatedAt, &fc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	fc.Decision = models.Decision(decision)
	fc.Status = models.CaseStatus(status)
	fc.CreatedAt, fc.UpdatedAt = fc.CreatedAt.UTC(), fc.UpdatedAt.UTC()
	if flagReason.Valid {
		fc.FlagReason = &flagReason.String
	}
	if reviewedBy.Valid {
		fc.ReviewedBy = &reviewedBy.String
	}
	return &fc, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
