package repository

import (
	"context"
	"fmt"

	"ChallengeArena/internal/domain/models"
	domrepo "ChallengeArena/internal/domain/repository"
	pkgkafka "ChallengeArena/pkg/kafka"
)

// KafkaPublisher publishes verdict events keyed by bot id, so one bot's
// verdicts stay ordered on one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.VerdictEvent) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.BotID), ev)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, evs []*models.VerdictEvent) error {
	msgs := make([]pkgkafka.Message, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(ev.BotID), Value: ev})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// KafkaLogPublisher ships aggregated error-log batches from the logger collector.
type KafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func NewKafkaLogPublisher(producer *pkgkafka.Producer) *KafkaLogPublisher {
	return &KafkaLogPublisher{producer: producer}
}

func (p *KafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}
