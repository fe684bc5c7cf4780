package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Handler func(ctx context.Context, event Event) error

// Handle adapts a typed payload handler to a Handler.
func Handle[T any](fn func(ctx context.Context, payload T) error) Handler {
	return func(ctx context.Context, event Event) error {
		payload, err := Decode[T](event)
		if err != nil {
			return err
		}
		return fn(ctx, payload)
	}
}

const (
	DefaultClaimInterval = 30 * time.Second
	DefaultClaimMinIdle  = time.Minute
)

// Subscriber consumes one partition stream sequentially. A message whose
// handler fails is logged, copied to the topic's dead-letter stream and
// acknowledged, so one bad message never blocks the partition.
//
// On start it replays entries delivered to this consumer but never acked.
// While running it claims entries other consumers have held longer than
// ClaimMinIdle.
type Subscriber struct {
	client        *redis.Client
	topic         string
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimInterval time.Duration
	claimMinIdle  time.Duration
	log           *zap.Logger
}

type SubscriberConfig struct {
	Topic         string
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	ClaimInterval time.Duration
	ClaimMinIdle  time.Duration
	Logger        *zap.Logger
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimInterval == 0 {
		config.ClaimInterval = DefaultClaimInterval
	}
	if config.ClaimMinIdle == 0 {
		config.ClaimMinIdle = DefaultClaimMinIdle
	}
	if config.Stream == "" {
		config.Stream = config.Topic
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Subscriber{
		client:        client,
		topic:         config.Topic,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimInterval: config.ClaimInterval,
		claimMinIdle:  config.ClaimMinIdle,
		log:           config.Logger.With(zap.String("stream", config.Stream), zap.String("group", config.Group)),
	}
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	s.log.Info("subscriber started", zap.String("consumer", s.consumer))

	if err := s.drainPending(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("failed to replay pending messages", zap.Error(err))
	}
	lastClaim := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("subscriber stopping")
			return ctx.Err()
		default:
			if time.Since(lastClaim) >= s.claimInterval {
				if err := s.claimIdle(ctx); err != nil && ctx.Err() == nil {
					s.log.Warn("failed to claim idle messages", zap.Error(err))
				}
				lastClaim = time.Now()
			}
			if err := s.readMessages(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.log.Warn("error reading messages", zap.Error(err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		s.handleBatch(ctx, stream.Messages)
	}

	return nil
}

// drainPending walks this consumer's pending entries list from the start.
// Those are messages read before a crash or restart that were never acked.
func (s *Subscriber) drainPending(ctx context.Context) error {
	start := "0"
	for {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, start},
			Count:    s.batchSize,
			Block:    -1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read pending messages: %w", err)
		}

		var batch []redis.XMessage
		for _, stream := range streams {
			batch = append(batch, stream.Messages...)
		}
		if len(batch) == 0 {
			return nil
		}
		s.log.Info("replaying pending messages", zap.Int("count", len(batch)))
		s.handleBatch(ctx, batch)
		start = batch[len(batch)-1].ID
	}
}

// claimIdle takes over entries that have sat unacked in any consumer of the
// group for at least claimMinIdle.
func (s *Subscriber) claimIdle(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimMinIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim idle messages: %w", err)
		}
		if len(messages) > 0 {
			s.log.Info("claimed idle messages", zap.Int("count", len(messages)))
			s.handleBatch(ctx, messages)
		}
		if next == "" || next == "0-0" {
			return nil
		}
		start = next
	}
}

func (s *Subscriber) handleBatch(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		if err := s.processMessage(ctx, message); err != nil {
			s.log.Error("failed to process message", zap.String("message_id", message.ID), zap.Error(err))
			metrics.EventsConsumed.WithLabelValues(s.topic, "failed").Inc()
			s.deadLetter(ctx, message, err)
		} else {
			metrics.EventsConsumed.WithLabelValues(s.topic, "ok").Inc()
		}

		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			s.log.Warn("failed to ack message", zap.String("message_id", message.ID), zap.Error(err))
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return s.handler(ctx, event)
}

func (s *Subscriber) deadLetter(ctx context.Context, message redis.XMessage, cause error) {
	raw, _ := message.Values["event"].(string)
	var key string
	var event Event
	if json.Unmarshal([]byte(raw), &event) == nil {
		key = event.Key
	}

	entry, err := json.Marshal(DeadLetter{
		OriginalTopic: s.topic,
		Stream:        s.stream,
		MessageID:     message.ID,
		Key:           key,
		Value:         raw,
		Error:         cause.Error(),
		FailedAt:      time.Now().UTC(),
	})
	if err != nil {
		return
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStream(s.topic),
		Values: map[string]any{"deadLetter": entry},
	}).Err()
	if err != nil {
		s.log.Error("failed to write dead letter", zap.String("message_id", message.ID), zap.Error(err))
	}
}

// GroupConfig describes a consumer group over every partition of one topic.
type GroupConfig struct {
	Topic      string
	Group      string
	Consumer   string
	Partitions int
	Handler    Handler
	Logger     *zap.Logger
}

// ConsumeTopic runs one Subscriber per partition until ctx is cancelled or
// one of them fails to start.
func ConsumeTopic(ctx context.Context, client *redis.Client, cfg GroupConfig) error {
	partitions := cfg.Partitions
	if partitions < 1 {
		partitions = DefaultPartitions
	}

	g, ctx := errgroup.WithContext(ctx)
	for p := 0; p < partitions; p++ {
		sub := NewSubscriber(client, SubscriberConfig{
			Topic:    cfg.Topic,
			Group:    cfg.Group,
			Consumer: cfg.Consumer,
			Stream:   StreamName(cfg.Topic, p),
			Handler:  cfg.Handler,
			Logger:   cfg.Logger,
		})
		g.Go(func() error { return sub.Start(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
