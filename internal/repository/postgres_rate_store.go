package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

// PGRateStore implements RateStore backed by Postgres. The unique
// constraint on (observed_date, term_years) is the system's sole guard
// against double-invocation by the external scheduler.
type PGRateStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGRateStore(pool *pgxpool.Pool) *PGRateStore {
	return &PGRateStore{pool: pool}
}

// SetLogger injects a structured logger.
func (s *PGRateStore) SetLogger(l *applogger.Logger) { s.l = l }

// Upsert writes one observation. A second call with the same
// (observed_date, term_years) overwrites in place; no duplicate rows
// accumulate on retries.
func (s *PGRateStore) Upsert(ctx context.Context, obs *models.RateObservation) error {
	start := time.Now()
	const q = `
        INSERT INTO rate_history (observed_date, rate_type, rate_value, term_years, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (observed_date, term_years)
        DO UPDATE SET rate_value = EXCLUDED.rate_value,
                      rate_type  = EXCLUDED.rate_type,
                      created_at = EXCLUDED.created_at
    `
	if _, err := s.pool.Exec(ctx, q,
		obs.ObservedDate, obs.RateType, obs.RateValue, obs.TermYears, obs.RecordedAt,
	); err != nil {
		if s.l != nil {
			s.l.Error("rate upsert error",
				applogger.String("date", obs.ObservedDate),
				applogger.Int("term_years", obs.TermYears),
				applogger.Error(err),
			)
		}
		return models.NewStoreError("upsert_rate", err)
	}
	if s.l != nil {
		s.l.Info("rate upserted",
			applogger.String("date", obs.ObservedDate),
			applogger.Int("term_years", obs.TermYears),
			applogger.Float64("rate", obs.RateValue),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Latest returns the most recent observation for a term, or nil when
// no observation exists yet.
func (s *PGRateStore) Latest(ctx context.Context, termYears int) (*models.RateObservation, error) {
	const q = `
        SELECT observed_date::text, rate_type, rate_value, term_years, created_at
        FROM rate_history
        WHERE term_years = $1
        ORDER BY observed_date DESC
        LIMIT 1
    `
	var obs models.RateObservation
	err := s.pool.QueryRow(ctx, q, termYears).Scan(
		&obs.ObservedDate, &obs.RateType, &obs.RateValue, &obs.TermYears, &obs.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if s.l != nil {
			s.l.Error("rate latest query error",
				applogger.Int("term_years", termYears),
				applogger.Error(err),
			)
		}
		return nil, models.NewStoreError("latest_rate", err)
	}
	return &obs, nil
}

// History returns observations for a term over the trailing window,
// newest first.
func (s *PGRateStore) History(ctx context.Context, termYears, days int) ([]models.RateObservation, error) {
	const q = `
        SELECT observed_date::text, rate_type, rate_value, term_years, created_at
        FROM rate_history
        WHERE term_years = $1 AND observed_date >= CURRENT_DATE - $2::int
        ORDER BY observed_date DESC
    `
	rows, err := s.pool.Query(ctx, q, termYears, days)
	if err != nil {
		if s.l != nil {
			s.l.Error("rate history query error",
				applogger.Int("term_years", termYears),
				applogger.Int("days", days),
				applogger.Error(err),
			)
		}
		return nil, models.NewStoreError("rate_history", err)
	}
	defer rows.Close()

	out := make([]models.RateObservation, 0, days)
	for rows.Next() {
		var obs models.RateObservation
		if err := rows.Scan(&obs.ObservedDate, &obs.RateType, &obs.RateValue, &obs.TermYears, &obs.RecordedAt); err != nil {
			return nil, models.NewStoreError("rate_history", err)
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("rate_history", err)
	}
	return out, nil
}

func (s *PGRateStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
