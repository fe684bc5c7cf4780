package query

import (
	"context"
	"testing"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	page, size int
}

func (s *stubReader) GetByID(_ context.Context, id string) (*models.FraudCase, error) {
	return &models.FraudCase{CaseID: id}, nil
}

func (s *stubReader) GetByTransaction(_ context.Context, id string) (*models.FraudCase, error) {
	return nil, apperrors.NotFound("fraud case", id)
}

func (s *stubReader) List(_ context.Context, page, size int) (*models.CasePage, error) {
	s.page, s.size = page, size
	return &models.CasePage{Page: page, Size: size}, nil
}

func TestListCasesClampsWindow(t *testing.T) {
	reader := &stubReader{}
	svc := NewCaseQueryService(reader)

	_, err := svc.ListCases(context.Background(), cqrs.ListCasesQuery{Page: -1, Size: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, reader.page)
	assert.Equal(t, 20, reader.size)

	_, err = svc.ListCases(context.Background(), cqrs.ListCasesQuery{Page: 2, Size: 500})
	require.NoError(t, err)
	assert.Equal(t, 2, reader.page)
	assert.Equal(t, 100, reader.size)
}

func TestGetCaseRequiresID(t *testing.T) {
	svc := NewCaseQueryService(&stubReader{})

	_, err := svc.GetCase(context.Background(), cqrs.GetCaseQuery{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.GetCaseByTransaction(context.Background(), cqrs.GetCaseByTransactionQuery{TransactionID: "txn-1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
