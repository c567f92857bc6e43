package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const defaultTopic = "rate-events"

// RateEventPublisher ships rate-updated and rate-update-failed events to a
// single Kafka topic, keyed by pair so per-pair ordering is preserved.
type RateEventPublisher struct {
	writer *kafka.Writer
}

func NewRateEventPublisher(brokers []string, topic string) *RateEventPublisher {
	if topic == "" {
		topic = defaultTopic
	}
	return &RateEventPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *RateEventPublisher) PublishRateUpdated(event domain.RateUpdatedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Pair),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *RateEventPublisher) PublishRateUpdateFailed(event domain.RateUpdateFailedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Pair),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *RateEventPublisher) Close() error {
	return p.writer.Close()
}
