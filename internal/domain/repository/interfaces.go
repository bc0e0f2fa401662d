package repository

import (
	"context"

	"RateWatch/internal/domain/models"
)

// RateSource fetches the current market rate from an external source.
// Implementations must fail closed: a typed FetchError, never a
// defaulted observation.
type RateSource interface {
	FetchMarketRate(ctx context.Context) (*models.RateObservation, error)
}

// RateStore persists rate observations with an idempotent upsert keyed
// on (observed_date, term_years).
type RateStore interface {
	Upsert(ctx context.Context, obs *models.RateObservation) error
	Latest(ctx context.Context, termYears int) (*models.RateObservation, error)
	History(ctx context.Context, termYears, days int) ([]models.RateObservation, error)
	Health(ctx context.Context) error
}

// ClientStore reads broker portfolios. Clients and mortgages are owned
// by the external CRUD collaborator.
type ClientStore interface {
	ClientsByBroker(ctx context.Context, brokerID string) ([]models.Client, error)
	ClientByID(ctx context.Context, brokerID, clientID string) (*models.Client, error)
}

// NotificationStore records notifications for the external delivery
// collaborator to pick up.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EventPublisher hands observations and notifications off to downstream
// consumers (the email dispatcher, dashboards).
type EventPublisher interface {
	PublishObservation(ctx context.Context, obs *models.RateObservation) error
	PublishNotification(ctx context.Context, n *models.Notification) error
	Close() error
}

// LiveFeed pushes events to connected dashboard sessions. Best-effort;
// a slow session never blocks the pipeline.
type LiveFeed interface {
	BroadcastObservation(obs *models.RateObservation)
	BroadcastNotification(n *models.Notification)
}

type Metrics interface {
	RecordFetchCycle(result string)
	RecordFetchError(kind string)
	RecordMarketRate(termYears string, rate float64)
	RecordLatency(op string, seconds float64)
	RecordNotification(ntype string)
}
