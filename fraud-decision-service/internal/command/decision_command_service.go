package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/fraud-decision-service/internal/rules"
	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	"go.uber.org/zap"
)

type CaseWriter interface {
	Create(ctx context.Context, fc *models.FraudCase) (*models.FraudCase, bool, error)
	Review(ctx context.Context, caseID string, status models.CaseStatus, reviewedBy string, at time.Time) (*models.FraudCase, error)
}

type CaseCacher interface {
	CacheCase(ctx context.Context, fc *models.FraudCase)
	EvictCase(ctx context.Context, caseID string)
}

type Decider interface {
	Decide(score float64) (rules.Outcome, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, data any) error
}

type ProcessedStore interface {
	IsProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string) error
}

// DecisionCommandService turns scored transactions into fraud cases and
// applies analyst reviews to them.
type DecisionCommandService struct {
	decider   Decider
	writeRepo CaseWriter
	cache     CaseCacher
	publisher EventPublisher
	processed ProcessedStore
	log       *zap.Logger
	now       func() time.Time
}

func NewDecisionCommandService(
	decider Decider,
	writeRepo CaseWriter,
	cache CaseCacher,
	publisher EventPublisher,
	processed ProcessedStore,
	log *zap.Logger,
) *DecisionCommandService {
	return &DecisionCommandService{
		decider:   decider,
		writeRepo: writeRepo,
		cache:     cache,
		publisher: publisher,
		processed: processed,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleRiskScored runs the rule chain, persists the case and publishes
// fraud.decision.made. A redelivered event for a transaction that already has
// a case republishes that case instead of creating a second one.
func (s *DecisionCommandService) HandleRiskScored(ctx context.Context, e events.RiskScoredEvent) error {
	if s.processed.IsProcessed(ctx, e.EventID) {
		s.log.Debug("score already decided, skipping duplicate", zap.String("event_id", e.EventID))
		return nil
	}

	outcome, err := s.decider.Decide(e.RiskScore)
	if err != nil {
		return err
	}

	now := s.now()
	fc, created, err := s.writeRepo.Create(ctx, &models.FraudCase{
		CaseID:        utils.NewID(),
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		RiskScore:     e.RiskScore,
		Decision:      outcome.Decision,
		Status:        outcome.Status,
		FlagReason:    outcome.Reason,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return err
	}
	if created {
		metrics.Decisions.WithLabelValues(string(fc.Decision)).Inc()
	} else {
		s.log.Info("case already exists for transaction", zap.String("txn_id", fc.TransactionID), zap.String("case_id", fc.CaseID))
	}
	s.cache.CacheCase(ctx, fc)

	if err := s.publisher.Publish(ctx, events.FraudDecisionMade, fc.UserID, events.FraudDecisionMadeEvent{
		EventID:       utils.DerivedID(events.FraudDecisionMade, fc.CaseID),
		CaseID:        fc.CaseID,
		TransactionID: fc.TransactionID,
		UserID:        fc.UserID,
		Decision:      fc.Decision,
		RiskScore:     fc.RiskScore,
		FlagReason:    fc.FlagReason,
		DecidedAt:     now,
	}); err != nil {
		return fmt.Errorf("publish fraud.decision.made for %s: %w", fc.TransactionID, err)
	}

	if err := s.processed.MarkProcessed(ctx, e.EventID); err != nil {
		s.log.Warn("failed to mark score decided", zap.String("event_id", e.EventID), zap.Error(err))
	}

	s.log.Info("fraud decision made",
		zap.String("case_id", fc.CaseID),
		zap.String("txn_id", fc.TransactionID),
		zap.String("decision", string(fc.Decision)),
		zap.Float64("risk_score", fc.RiskScore),
	)
	return nil
}

// ReviewCase applies an analyst APPROVE or REJECT to a pending case.
func (s *DecisionCommandService) ReviewCase(ctx context.Context, cmd cqrs.ReviewCaseCommand) (*models.FraudCase, error) {
	var status models.CaseStatus
	switch strings.ToUpper(strings.TrimSpace(cmd.Action)) {
	case "APPROVE":
		status = models.CaseApproved
	case "REJECT":
		status = models.CaseRejected
	default:
		return nil, apperrors.Validation("unknown review action %q", cmd.Action)
	}
	if cmd.ReviewedBy == "" {
		return nil, apperrors.Validation("reviewedBy is required")
	}

	fc, err := s.writeRepo.Review(ctx, cmd.CaseID, status, cmd.ReviewedBy, s.now())
	if err != nil {
		return nil, err
	}
	s.cache.EvictCase(ctx, fc.CaseID)
	s.cache.CacheCase(ctx, fc)

	s.log.Info("case reviewed",
		zap.String("case_id", fc.CaseID),
		zap.String("status", string(fc.Status)),
		zap.String("reviewed_by", cmd.ReviewedBy),
	)
	return fc, nil
}
