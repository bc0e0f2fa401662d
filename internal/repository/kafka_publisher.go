package repository

import (
	"context"
	"fmt"

	"RateWatch/internal/domain/models"
	"RateWatch/internal/domain/repository"
	pkgkafka "RateWatch/pkg/kafka"
)

// KafkaEventPublisher hands observations and notifications to the
// external delivery collaborators via Kafka topics.
type KafkaEventPublisher struct {
	producer           *pkgkafka.Producer
	observationsTopic  string
	notificationsTopic string
}

// NewKafkaEventPublisher creates a Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, observationsTopic, notificationsTopic string) repository.EventPublisher {
	return &KafkaEventPublisher{
		producer:           producer,
		observationsTopic:  observationsTopic,
		notificationsTopic: notificationsTopic,
	}
}

// PublishObservation keys by term so per-term ordering holds.
func (p *KafkaEventPublisher) PublishObservation(ctx context.Context, obs *models.RateObservation) error {
	key := []byte(fmt.Sprintf("term-%d", obs.TermYears))
	return p.producer.Publish(ctx, p.observationsTopic, key, map[string]interface{}{
		"observed_date": obs.ObservedDate,
		"rate_type":     obs.RateType,
		"rate_value":    obs.RateValue,
		"term_years":    obs.TermYears,
		"recorded_at":   obs.RecordedAt,
	})
}

// PublishNotification keys by broker so a broker's notifications stay
// ordered for the delivery consumer.
func (p *KafkaEventPublisher) PublishNotification(ctx context.Context, n *models.Notification) error {
	return p.producer.Publish(ctx, p.notificationsTopic, []byte(n.UserID), map[string]interface{}{
		"id":         n.ID,
		"user_id":    n.UserID,
		"title":      n.Title,
		"message":    n.Message,
		"type":       n.Type,
		"created_at": n.CreatedAt,
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher is used when Kafka is disabled in config; observations
// and notifications then exist only in Postgres.
type NoopPublisher struct{}

func (NoopPublisher) PublishObservation(context.Context, *models.RateObservation) error { return nil }
func (NoopPublisher) PublishNotification(context.Context, *models.Notification) error  { return nil }
func (NoopPublisher) Close() error                                                     { return nil }
