package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/gulf-ocean-etl/internal/config"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces document snapshots to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSnapshotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish sends one written document. The category is the message key, so
// every snapshot of a category lands on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, category string, data []byte, updated string) error {
	if err := p.writer.WriteMessages(ctx, snapshotMessage(category, data, updated)); err != nil {
		return fmt.Errorf("publish %s snapshot: %w", category, err)
	}
	p.logger.Debug("snapshot published", "category", category, "bytes", len(data))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func snapshotMessage(category string, data []byte, updated string) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(category),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(category)},
			{Key: "updated", Value: []byte(updated)},
		},
	}
}
