package command

import (
	"context"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransactionWriter interface {
	Create(ctx context.Context, tx *models.Transaction) error
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, at time.Time) (*models.Transaction, error)
}

type ViewCacher interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

type Admitter interface {
	Admit(ctx context.Context, userID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, data any) error
}

type ProcessedStore interface {
	IsProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string) error
}

// TransactionCommandService admits, persists and announces transactions, and
// applies screening outcomes back onto them.
type TransactionCommandService struct {
	writeRepo TransactionWriter
	readRepo  ViewCacher
	limiter   Admitter
	publisher EventPublisher
	processed ProcessedStore
	log       *zap.Logger
	now       func() time.Time
}

func NewTransactionCommandService(
	writeRepo TransactionWriter,
	readRepo ViewCacher,
	limiter Admitter,
	publisher EventPublisher,
	processed ProcessedStore,
	log *zap.Logger,
) *TransactionCommandService {
	return &TransactionCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		limiter:   limiter,
		publisher: publisher,
		processed: processed,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTransaction validates, rate limits, persists and publishes. The
// returned transaction is PENDING; screening completes asynchronously.
func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if cmd.UserID == "" {
		return nil, apperrors.Validation("userId is required")
	}
	if !cmd.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be greater than zero")
	}

	if err := s.limiter.Admit(ctx, cmd.UserID); err != nil {
		s.log.Warn("transaction rejected", zap.String("user_id", cmd.UserID), zap.Error(err))
		return nil, err
	}

	id := cmd.TransactionID
	if id == "" {
		id = utils.NewID()
	}
	now := s.now()
	tx := &models.Transaction{
		ID:           id,
		UserID:       cmd.UserID,
		Amount:       cmd.Amount.Round(2),
		Location:     cmd.Location,
		MerchantType: cmd.MerchantType,
		Status:       models.TransactionPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.writeRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	metrics.TransactionsAdmitted.Inc()
	s.readRepo.CacheTransactionView(ctx, tx.View())

	if err := s.publisher.Publish(ctx, events.TransactionCreated, tx.UserID, events.TransactionCreatedEvent{
		EventID:       utils.NewID(),
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        decimal.NewNullDecimal(tx.Amount),
		Location:      tx.Location,
		MerchantType:  tx.MerchantType,
		Timestamp:     tx.CreatedAt,
	}); err != nil {
		metrics.EventsPublishFailed.WithLabelValues(events.TransactionCreated).Inc()
		s.log.Error("failed to publish transaction.created event", zap.String("txn_id", tx.ID), zap.Error(err))
	}

	s.log.Info("transaction admitted",
		zap.String("txn_id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.String("amount", tx.Amount.StringFixed(2)),
	)
	return tx, nil
}

// HandleFraudDecision reacts to fraud.decision.made by recording the
// screening outcome on the transaction. Duplicate deliveries are skipped.
func (s *TransactionCommandService) HandleFraudDecision(ctx context.Context, e events.FraudDecisionMadeEvent) error {
	if s.processed.IsProcessed(ctx, e.EventID) {
		s.log.Debug("decision already applied, skipping duplicate", zap.String("event_id", e.EventID))
		return nil
	}

	status := e.Decision.TransactionStatus()
	tx, err := s.writeRepo.UpdateStatus(ctx, e.TransactionID, status, s.now())
	if err != nil {
		return err
	}
	if err := s.processed.MarkProcessed(ctx, e.EventID); err != nil {
		s.log.Warn("failed to mark decision processed", zap.String("event_id", e.EventID), zap.Error(err))
	}
	s.readRepo.CacheTransactionView(ctx, tx.View())

	s.log.Info("transaction screened",
		zap.String("txn_id", tx.ID),
		zap.String("decision", string(e.Decision)),
		zap.String("status", string(status)),
	)
	return nil
}
