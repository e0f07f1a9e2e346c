// Package events publishes notifications about completed rate imports.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RatesImported is emitted after an import stored at least one new observation.
type RatesImported struct {
	Table          string    `json:"table"`
	EffectiveDates []string  `json:"effective_dates"`
	Inserted       int       `json:"inserted"`
	Skipped        int       `json:"skipped"`
	Errors         int       `json:"errors"`
	ImportedAt     time.Time `json:"imported_at"`
}

// Publisher delivers import events to downstream consumers.
type Publisher interface {
	PublishRatesImported(ctx context.Context, event RatesImported) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// PublishRatesImported implements Publisher.
func (NopPublisher) PublishRatesImported(context.Context, RatesImported) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by table.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishRatesImported implements Publisher.
func (k *KafkaPublisher) PublishRatesImported(ctx context.Context, event RatesImported) error {
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal rates imported event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Table),
		Value: v,
		Time:  event.ImportedAt,
	}); err != nil {
		return fmt.Errorf("write rates imported event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
