package queue

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/smukkama/pedestrian-stats/internal/protocol"
)

// EventPublisher publishes staging events
type EventPublisher interface {
	PublishEvents(ctx context.Context, events ...*protocol.Event) error
	Close() error
}

// KafkaEventPublisher publishes staging events keyed by run id, so that
// every event of a run lands on the same partition in order
type KafkaEventPublisher struct {
	producer *Producer
}

// NewKafkaEventPublisher creates a new event publisher
func NewKafkaEventPublisher(producer *Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// PublishEvents encodes and sends the events as one batch
func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, events ...*protocol.Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := protocol.EncodeEvent(e)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", e.Type, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(e.RunID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	return p.producer.PublishBatch(ctx, messages)
}

// Close closes the underlying producer
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher discards events; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) PublishEvents(context.Context, ...*protocol.Event) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
