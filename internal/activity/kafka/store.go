// Package kafka publishes activity events to a Kafka topic. The produce is
// fire-and-forget: delivery failures are logged by the callback, never
// surfaced to the engine.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"tramita/internal/activity"
)

// Store implements activity.Store on top of a franz-go client.
type Store struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the given brokers. The caller owns Close.
func New(brokers []string, topic string, logger *slog.Logger) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, topic: topic, logger: logger}, nil
}

// Append serializes the event and produces it asynchronously. The returned
// error covers serialization only; broker failures land in the callback.
func (s *Store) Append(ctx context.Context, event activity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ProcessID.String()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("activity event publish failed",
				"topic", s.topic,
				"action", event.Action,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	s.client.Close()
	return nil
}
