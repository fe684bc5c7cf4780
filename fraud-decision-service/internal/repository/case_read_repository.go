package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	caseViewKeyPrefix = "fraud_case:view:"
	caseViewTTL       = time.Hour
)

// CaseReadRepository serves case reads from Redis, falling back to PostgreSQL.
type CaseReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.FraudCase]
}

func NewCaseReadRepository(db *sql.DB, redisClient *goredis.Client, log *zap.Logger) *CaseReadRepository {
	return &CaseReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.FraudCase](redisClient, caseViewKeyPrefix, caseViewTTL, log),
	}
}

func (r *CaseReadRepository) GetByID(ctx context.Context, caseID string) (*models.FraudCase, error) {
	if fc, ok := r.cache.Get(ctx, caseID); ok {
		return fc, nil
	}
	fc, err := getCaseBy(ctx, r.db, "case_id", caseID)
	if err != nil {
		return nil, err
	}
	r.CacheCase(ctx, fc)
	return fc, nil
}

func (r *CaseReadRepository) GetByTransaction(ctx context.Context, transactionID string) (*models.FraudCase, error) {
	return getCaseBy(ctx, r.db, "transaction_id", transactionID)
}

// List returns one page of cases, newest first.
func (r *CaseReadRepository) List(ctx context.Context, page, size int) (*models.CasePage, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fraud_cases`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count fraud cases: %w", err)
	}

	query := `
		SELECT ` + caseColumns + `
		FROM fraud_cases
		ORDER BY created_at DESC, case_id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud cases: %w", err)
	}
	defer rows.Close()

	cases := []models.FraudCase{}
	for rows.Next() {
		fc, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fraud case: %w", err)
		}
		cases = append(cases, *fc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.CasePage{
		Cases:         cases,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    utils.TotalPages(total, size),
	}, nil
}

func (r *CaseReadRepository) CacheCase(ctx context.Context, fc *models.FraudCase) {
	r.cache.Set(ctx, fc.CaseID, fc)
}

func (r *CaseReadRepository) EvictCase(ctx context.Context, caseID string) {
	r.cache.Delete(ctx, caseID)
}
