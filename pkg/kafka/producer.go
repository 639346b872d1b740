package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
)

// Event is one JSON message. Key picks the partition, so results for the
// same query id stay ordered.
type Event struct {
	Key   string
	Value any
}

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch encodes every event before writing, so a marshal failure
// publishes nothing.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", event.Key, err)
		}
		messages = append(messages, kafka.Message{Key: []byte(event.Key), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to publish", "count", len(messages), "error", err)
		return fmt.Errorf("publishing to kafka: %w", err)
	}
	p.logger.Debug("published", "count", len(messages))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
