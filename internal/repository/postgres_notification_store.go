package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

// PGNotificationStore records notifications. Lifecycle after insert
// (read state, deletion, email delivery) is owned by the external
// notification collaborator.
type PGNotificationStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGNotificationStore(pool *pgxpool.Pool) *PGNotificationStore {
	return &PGNotificationStore{pool: pool}
}

// SetLogger injects a structured logger.
func (s *PGNotificationStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	const q = `
        INSERT INTO notifications (id, user_id, title, message, type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := s.pool.Exec(ctx, q, n.ID, n.UserID, n.Title, n.Message, n.Type, n.CreatedAt); err != nil {
		if s.l != nil {
			s.l.Error("notification insert error",
				applogger.String("user_id", n.UserID),
				applogger.String("type", n.Type),
				applogger.Error(err),
			)
		}
		return models.NewStoreError("create_notification", err)
	}
	return nil
}
