package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/retry"
	"github.com/redis/go-redis/v9"
)

// Publisher appends events to the partition stream chosen by their key.
type Publisher struct {
	client     *redis.Client
	partitions int
	retry      retry.Policy
}

func NewPublisher(client *redis.Client, partitions int) *Publisher {
	if partitions < 1 {
		partitions = DefaultPartitions
	}
	return &Publisher{client: client, partitions: partitions, retry: retry.DefaultPolicy}
}

// WithRetry overrides the publish retry policy.
func (p *Publisher) WithRetry(policy retry.Policy) *Publisher {
	p.retry = policy
	return p
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	eventJSON, err := json.Marshal(Event{
		Type:      topic,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: StreamName(topic, Partition(key, p.partitions)),
		Values: map[string]any{"event": eventJSON},
	}
	err = p.retry.Do(ctx, func() error {
		return p.client.XAdd(ctx, args).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}
