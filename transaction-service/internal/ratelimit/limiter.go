// Package ratelimit admits transactions under a per-user fixed window.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
)

// Limiter counts every admission attempt, rejected ones included, against
// the user's window counter.
type Limiter struct {
	counter sharedredis.RollingCounter
	limit   int64
}

func New(counter sharedredis.RollingCounter, limit int64) *Limiter {
	return &Limiter{counter: counter, limit: limit}
}

// Admit returns a *apperrors.RateLimitError once the user exceeds the limit
// within the current window.
func (l *Limiter) Admit(ctx context.Context, userID string) error {
	count, err := l.counter.Increment(ctx, sharedredis.TxnCountKey(userID))
	if err != nil {
		return fmt.Errorf("rate limit check for %s: %w", userID, err)
	}
	if count > l.limit {
		metrics.RateLimitRejections.Inc()
		return &apperrors.RateLimitError{UserID: userID, Count: count, Limit: l.limit}
	}
	return nil
}
