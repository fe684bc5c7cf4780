package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// TransactionWriteRepository handles all state-mutating operations for transactions.
// It operates exclusively against the PostgreSQL write store (source of truth).
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, user_id, amount, location, merchant_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.Amount,
		nullString(tx.Location), nullString(tx.MerchantType),
		string(tx.Status), tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("transaction", tx.ID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// UpdateStatus moves a transaction to its screened status and returns the
// updated row.
func (r *TransactionWriteRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, at time.Time) (*models.Transaction, error) {
	query := `
		UPDATE transactions SET status = $2, updated_at = $3
		WHERE transaction_id = $1
		RETURNING ` + transactionColumns
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, string(status), at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	return tx, nil
}

const transactionColumns = `transaction_id, user_id, amount, location, merchant_type, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var location, merchant sql.NullString
	var status string
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Amount,
		&location, &merchant, &status,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.Location = location.String
	tx.MerchantType = merchant.String
	tx.Status = models.TransactionStatus(status)
	tx.CreatedAt, tx.UpdatedAt = tx.CreatedAt.UTC(), tx.UpdatedAt.UTC()
	return &tx, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
