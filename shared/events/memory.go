package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryBus delivers events synchronously to in-process handlers. It encodes
// every event exactly as the Redis publisher does, so handlers see the same
// bytes they would read from a stream. Handler failures are recorded as dead
// letters and never returned to the publisher.
type MemoryBus struct {
	mu          sync.Mutex
	handlers    map[string][]Handler
	published   map[string][]Event
	deadLetters []DeadLetter
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers:  make(map[string][]Handler),
		published: make(map[string][]Event),
	}
}

func (b *MemoryBus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

func (b *MemoryBus) Publish(ctx context.Context, topic, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	event := Event{Type: topic, Key: key, Timestamp: time.Now().UTC(), Data: payload}

	b.mu.Lock()
	b.published[topic] = append(b.published[topic], event)
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.mu.Lock()
			b.deadLetters = append(b.deadLetters, DeadLetter{
				OriginalTopic: topic,
				Key:           key,
				Value:         string(payload),
				Error:         err.Error(),
				FailedAt:      time.Now().UTC(),
			})
			b.mu.Unlock()
		}
	}
	return nil
}

// Published returns the events sent to topic, oldest first.
func (b *MemoryBus) Published(topic string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.published[topic]...)
}

func (b *MemoryBus) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DeadLetter(nil), b.deadLetters...)
}

// Decode unmarshals an event payload into T.
func Decode[T any](event Event) (T, error) {
	var payload T
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	return payload, nil
}
