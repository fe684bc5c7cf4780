package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ProcessedTTL covers any realistic redelivery window of a consumer group.
const ProcessedTTL = 72 * time.Hour

// ProcessedMarker remembers which event ids a stage has already applied so
// duplicate deliveries can be skipped.
type ProcessedMarker struct {
	client *goredis.Client
	prefix string
}

func NewProcessedMarker(client *goredis.Client, stage string) *ProcessedMarker {
	return &ProcessedMarker{client: client, prefix: "processed:" + stage + ":"}
}

func (m *ProcessedMarker) IsProcessed(ctx context.Context, eventID string) bool {
	n, err := m.client.Exists(ctx, m.prefix+eventID).Result()
	return err == nil && n > 0
}

func (m *ProcessedMarker) MarkProcessed(ctx context.Context, eventID string) error {
	if err := m.client.Set(ctx, m.prefix+eventID, "1", ProcessedTTL).Err(); err != nil {
		return fmt.Errorf("mark %s processed: %w", eventID, err)
	}
	return nil
}
