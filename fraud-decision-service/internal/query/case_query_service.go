package query

import (
	"context"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
)

type CaseReader interface {
	GetByID(ctx context.Context, caseID string) (*models.FraudCase, error)
	GetByTransaction(ctx context.Context, transactionID string) (*models.FraudCase, error)
	List(ctx context.Context, page, size int) (*models.CasePage, error)
}

type CaseQueryService struct {
	readRepo CaseReader
}

func NewCaseQueryService(readRepo CaseReader) *CaseQueryService {
	return &CaseQueryService{readRepo: readRepo}
}

func (s *CaseQueryService) GetCase(ctx context.Context, q cqrs.GetCaseQuery) (*models.FraudCase, error) {
	if q.CaseID == "" {
		return nil, apperrors.Validation("caseId is required")
	}
	return s.readRepo.GetByID(ctx, q.CaseID)
}

func (s *CaseQueryService) GetCaseByTransaction(ctx context.Context, q cqrs.GetCaseByTransactionQuery) (*models.FraudCase, error) {
	if q.TransactionID == "" {
		return nil, apperrors.Validation("transactionId is required")
	}
	return s.readRepo.GetByTransaction(ctx, q.TransactionID)
}

// ListCases clamps the page window before hitting the store.
func (s *CaseQueryService) ListCases(ctx context.Context, q cqrs.ListCasesQuery) (*models.CasePage, error) {
	page, size := q.Page, q.Size
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = utils.DefaultPageSize
	}
	if size > utils.MaxPageSize {
		size = utils.MaxPageSize
	}
	return s.readRepo.List(ctx, page, size)
}
