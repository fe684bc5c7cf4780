package command

import (
	"context"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/scoring"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	"go.uber.org/zap"
)

// ContextStore is the behavioural cache read before and written after scoring.
type ContextStore interface {
	RecentFraudCount(ctx context.Context, userID string) (int, error)
	RecentFrequency(ctx context.Context, userID string) (int, error)
	IncrementFraudCount(ctx context.Context, userID string) (int64, error)
	Put(ctx context.Context, userID string, score float64, level models.RiskLevel) error
	AddHighRisk(ctx context.Context, transactionID string) error
}

type ProfileStore interface {
	Upsert(ctx context.Context, p *models.RiskProfile) error
}

type Scorer interface {
	Evaluate(tx scoring.Transaction, rc scoring.Context) scoring.Result
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, data any) error
}

type ProcessedStore interface {
	IsProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string) error
}

// RiskCommandService is the scoring stage.
type RiskCommandService struct {
	scorer    Scorer
	cache     ContextStore
	profiles  ProfileStore
	publisher EventPublisher
	processed ProcessedStore
	log       *zap.Logger
	now       func() time.Time
}

func NewRiskCommandService(
	scorer Scorer,
	cache ContextStore,
	profiles ProfileStore,
	publisher EventPublisher,
	processed ProcessedStore,
	log *zap.Logger,
) *RiskCommandService {
	return &RiskCommandService{
		scorer:    scorer,
		cache:     cache,
		profiles:  profiles,
		publisher: publisher,
		processed: processed,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleTransactionCreated scores a new transaction against the user's
// cached context, refreshes the cache and profile, and publishes risk.scored.
func (s *RiskCommandService) HandleTransactionCreated(ctx context.Context, e events.TransactionCreatedEvent) error {
	if s.processed.IsProcessed(ctx, e.EventID) {
		s.log.Debug("transaction already scored, skipping duplicate", zap.String("event_id", e.EventID))
		return nil
	}

	fraudCount, err := s.cache.RecentFraudCount(ctx, e.UserID)
	if err != nil {
		return err
	}
	frequency, err := s.cache.RecentFrequency(ctx, e.UserID)
	if err != nil {
		return err
	}

	rc := scoring.Context{RecentFraudCount: fraudCount, RecentFrequency: frequency}
	res := s.scorer.Evaluate(scoring.Transaction{
		Amount:       e.Amount,
		Location:     e.Location,
		MerchantType: e.MerchantType,
	}, rc)
	metrics.RiskScores.Observe(res.Score)

	if err := s.cache.Put(ctx, e.UserID, res.Score, res.Level); err != nil {
		s.log.Warn("failed to cache risk context", zap.String("user_id", e.UserID), zap.Error(err))
	}
	if res.Level == models.RiskHigh {
		if err := s.cache.AddHighRisk(ctx, e.TransactionID); err != nil {
			s.log.Warn("failed to record high-risk transaction", zap.String("txn_id", e.TransactionID), zap.Error(err))
		}
	}

	scoredAt := s.now()
	if err := s.profiles.Upsert(ctx, &models.RiskProfile{
		UserID:               e.UserID,
		RiskScore:            res.Score,
		RiskLevel:            res.Level,
		RecentFraudCount:     fraudCount,
		TransactionFrequency: frequency,
		TopRiskFactor:        res.TopFactor,
		LastUpdated:          scoredAt,
	}); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.RiskScored, e.UserID, events.RiskScoredEvent{
		EventID:       utils.DerivedID(events.RiskScored, e.TransactionID),
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		RiskScore:     res.Score,
		RiskLevel:     res.Level,
		ScoredAt:      scoredAt,
	}); err != nil {
		return fmt.Errorf("publish risk.scored for %s: %w", e.TransactionID, err)
	}

	if err := s.processed.MarkProcessed(ctx, e.EventID); err != nil {
		s.log.Warn("failed to mark transaction scored", zap.String("event_id", e.EventID), zap.Error(err))
	}

	s.log.Info("transaction scored",
		zap.String("txn_id", e.TransactionID),
		zap.String("user_id", e.UserID),
		zap.Float64("risk_score", res.Score),
		zap.String("risk_level", string(res.Level)),
		zap.String("top_factor", res.TopFactor),
	)
	return nil
}

// HandleFraudDecision feeds blocked decisions back into the user's fraud
// history so the next transaction is scored with it.
func (s *RiskCommandService) HandleFraudDecision(ctx context.Context, e events.FraudDecisionMadeEvent) error {
	if e.Decision != models.DecisionBlock {
		return nil
	}
	if s.processed.IsProcessed(ctx, e.EventID) {
		return nil
	}

	count, err := s.cache.IncrementFraudCount(ctx, e.UserID)
	if err != nil {
		return err
	}
	if err := s.processed.MarkProcessed(ctx, e.EventID); err != nil {
		s.log.Warn("failed to mark decision processed", zap.String("event_id", e.EventID), zap.Error(err))
	}

	s.log.Info("fraud history incremented", zap.String("user_id", e.UserID), zap.Int64("fraud_count", count))
	return nil
}
