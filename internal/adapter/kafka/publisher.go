// Package kafka archives classified flood events to a Kafka topic for
// downstream consumers. The publisher is optional; the dashboard works
// identically without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/config"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
)

// Publisher produces flood events to the archival topic.
// It implements dashboard.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishEvents serializes and publishes flood events in a single
// WriteMessages call for efficiency.
func (p *Publisher) PublishEvents(ctx context.Context, events []domain.FloodEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a FloodEvent into a Kafka message keyed by the
// event's assigned instant, so replays of the same export are idempotent
// under log compaction.
func serializeToMessage(event domain.FloodEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flood event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Time.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(event.Type.String())},
		},
	}, nil
}
