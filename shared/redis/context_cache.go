package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	goredis "github.com/redis/go-redis/v9"
)

const (
	riskKeyPrefix = "user:risk:"
	HotListKey    = "hot:high-risk-transactions"

	fieldRiskScore  = "riskScore"
	fieldRiskLevel  = "riskLevel"
	fieldFraudCount = "fraudCount"

	RiskContextTTL = 24 * time.Hour
	HotListSize    = 100
)

// RiskContextCache holds the per-user behavioural signals read before
// scoring. Absent keys read as zero values, never as errors.
type RiskContextCache struct {
	client  *goredis.Client
	counter RollingCounter
}

func NewRiskContextCache(client *goredis.Client, counter RollingCounter) *RiskContextCache {
	return &RiskContextCache{client: client, counter: counter}
}

func riskKey(userID string) string { return riskKeyPrefix + userID }

// RiskScore returns the last cached score and whether one was present.
func (c *RiskContextCache) RiskScore(ctx context.Context, userID string) (float64, bool, error) {
	score, err := c.client.HGet(ctx, riskKey(userID), fieldRiskScore).Float64()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read risk score for %s: %w", userID, err)
	}
	return score, true, nil
}

func (c *RiskContextCache) RiskLevel(ctx context.Context, userID string) (models.RiskLevel, bool, error) {
	level, err := c.client.HGet(ctx, riskKey(userID), fieldRiskLevel).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read risk level for %s: %w", userID, err)
	}
	return models.RiskLevel(level), true, nil
}

func (c *RiskContextCache) RecentFraudCount(ctx context.Context, userID string) (int, error) {
	n, err := c.client.HGet(ctx, riskKey(userID), fieldFraudCount).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read fraud count for %s: %w", userID, err)
	}
	return n, nil
}

// RecentFrequency reads the same window counter the rate limiter increments.
func (c *RiskContextCache) RecentFrequency(ctx context.Context, userID string) (int, error) {
	n, err := c.counter.Get(ctx, TxnCountKey(userID))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *RiskContextCache) IncrementFraudCount(ctx context.Context, userID string) (int64, error) {
	key := riskKey(userID)
	var incr *goredis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, fieldFraudCount, 1)
		pipe.Expire(ctx, key, RiskContextTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment fraud count for %s: %w", userID, err)
	}
	return incr.Val(), nil
}

// Put records the latest score and level, leaving fraudCount untouched.
func (c *RiskContextCache) Put(ctx context.Context, userID string, score float64, level models.RiskLevel) error {
	key := riskKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldRiskScore, score, fieldRiskLevel, string(level))
		pipe.Expire(ctx, key, RiskContextTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache risk context for %s: %w", userID, err)
	}
	return nil
}

// AddHighRisk pushes a transaction id onto the bounded newest-first hot list.
func (c *RiskContextCache) AddHighRisk(ctx context.Context, transactionID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, HotListKey, transactionID)
		pipe.LTrim(ctx, HotListKey, 0, HotListSize-1)
		pipe.Expire(ctx, HotListKey, RiskContextTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push %s to hot list: %w", transactionID, err)
	}
	return nil
}

func (c *RiskContextCache) HighRiskTransactions(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 || limit > HotListSize {
		limit = HotListSize
	}
	ids, err := c.client.LRange(ctx, HotListKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read hot list: %w", err)
	}
	return ids, nil
}
