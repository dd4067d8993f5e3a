package repository

import (
	"context"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
	pkgkafka "TWPull/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Change events are keyed by
// symbol so per-symbol ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka change publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func changePayload(index models.Index, c models.Change) map[string]interface{} {
	return map[string]interface{}{
		"index":  string(index),
		"symbol": c.Symbol,
		"date":   c.Date.Unix(),
		"type":   string(c.Type),
	}
}

func (p *KafkaPublisher) PublishChange(ctx context.Context, index models.Index, c models.Change) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), changePayload(index, c))
}

func (p *KafkaPublisher) PublishChanges(ctx context.Context, index models.Index, changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(changes))
	for i, c := range changes {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: changePayload(index, c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
