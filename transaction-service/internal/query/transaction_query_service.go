package query

import (
	"context"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

type TransactionReader interface {
	GetByID(ctx context.Context, id string) (*models.TransactionView, error)
	ListByUser(ctx context.Context, userID string) ([]models.TransactionView, error)
}

// TransactionQueryService serves transaction reads from the cached read model.
type TransactionQueryService struct {
	readRepo TransactionReader
}

func NewTransactionQueryService(readRepo TransactionReader) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if q.TransactionID == "" {
		return nil, apperrors.Validation("transactionId is required")
	}
	return s.readRepo.GetByID(ctx, q.TransactionID)
}

func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if q.UserID == "" {
		return nil, apperrors.Validation("userId is required")
	}
	return s.readRepo.ListByUser(ctx, q.UserID)
}
