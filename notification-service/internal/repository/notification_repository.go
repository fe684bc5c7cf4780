package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

const listLimit = 100

// NotificationRepository is append-only.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Save inserts n and sets its generated id.
func (r *NotificationRepository) Save(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (transaction_id, user_id, channel, message, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		n.TransactionID, n.UserID, string(n.Channel), n.Message, string(n.Status), n.SentAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	query := `
		SELECT id, transaction_id, user_id, channel, message, status, sent_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var channel, status string
		if err := rows.Scan(&n.ID, &n.TransactionID, &n.UserID, &channel, &n.Message, &status, &n.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Channel = models.NotificationChannel(channel)
		n.Status = models.NotificationStatus(status)
		out = append(out, n)
	}
	return out, rows.Err()
}
