package command

import (
	"context"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/notification-service/internal/message"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"go.uber.org/zap"
)

type NotificationStore interface {
	Save(ctx context.Context, n *models.Notification) error
}

type ProcessedStore interface {
	IsProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string) error
}

// NotificationCommandService records the notification a decision calls for.
// Delivery itself happens elsewhere, so records are written as PENDING.
type NotificationCommandService struct {
	store     NotificationStore
	processed ProcessedStore
	log       *zap.Logger
	now       func() time.Time
}

func NewNotificationCommandService(store NotificationStore, processed ProcessedStore, log *zap.Logger) *NotificationCommandService {
	return &NotificationCommandService{
		store:     store,
		processed: processed,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationCommandService) HandleFraudDecision(ctx context.Context, e events.FraudDecisionMadeEvent) error {
	if s.processed.IsProcessed(ctx, e.EventID) {
		s.log.Debug("decision already notified, skipping duplicate", zap.String("event_id", e.EventID))
		return nil
	}

	text, err := message.Build(e.Decision, e.TransactionID)
	if err != nil {
		return err
	}

	n := &models.Notification{
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		Channel:       models.ChannelEmail,
		Message:       text,
		Status:        models.NotificationPending,
		SentAt:        s.now(),
	}
	if err := s.store.Save(ctx, n); err != nil {
		return err
	}
	metrics.Notifications.WithLabelValues(string(e.Decision)).Inc()

	if err := s.processed.MarkProcessed(ctx, e.EventID); err != nil {
		s.log.Warn("failed to mark decision notified", zap.String("event_id", e.EventID), zap.Error(err))
	}

	s.log.Info("notification recorded",
		zap.Int64("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("txn_id", n.TransactionID),
		zap.String("decision", string(e.Decision)),
	)
	return nil
}
