package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"RateWatch/internal/domain/models"
	domrepo "RateWatch/internal/domain/repository"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/service/ratelimit"
	applogger "RateWatch/pkg/logger"
)

const sourceKey = "rate-source"

// RateIngestor runs one fetch→store cycle. It performs no retries:
// transient failures surface to the invoking scheduler infrastructure,
// and the store's idempotent upsert makes that scheduler's retries
// safe.
type RateIngestor struct {
	source  domrepo.RateSource
	store   domrepo.RateStore
	pub     domrepo.EventPublisher
	cache   icache.BytesCache
	feed    domrepo.LiveFeed
	guard   *ratelimit.IntervalGuard
	metrics domrepo.Metrics
	l       *applogger.Logger

	latestTTL time.Duration
}

func NewRateIngestor(
	source domrepo.RateSource,
	store domrepo.RateStore,
	pub domrepo.EventPublisher,
	cache icache.BytesCache,
	feed domrepo.LiveFeed,
	guard *ratelimit.IntervalGuard,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	latestTTL time.Duration,
) *RateIngestor {
	return &RateIngestor{
		source:    source,
		store:     store,
		pub:       pub,
		cache:     cache,
		feed:      feed,
		guard:     guard,
		metrics:   metrics,
		l:         l,
		latestTTL: latestTTL,
	}
}

// RunOnce fetches one observation and upserts it. A FetchError prevents
// the store call entirely; a StoreError leaves nothing recorded. The
// returned summary reports what happened either way.
func (in *RateIngestor) RunOnce(ctx context.Context) (*models.RunSummary, error) {
	start := time.Now()

	if !in.guard.Allow(sourceKey) {
		in.metrics.RecordFetchCycle("throttled")
		return &models.RunSummary{
			SkipReason: "ran too recently",
			DurationMS: time.Since(start).Milliseconds(),
		}, nil
	}

	obs, err := in.source.FetchMarketRate(ctx)
	if err != nil {
		in.recordFailure(err)
		return nil, err
	}

	if err := in.store.Upsert(ctx, obs); err != nil {
		in.recordFailure(err)
		return nil, err
	}

	in.afterWrite(ctx, obs)

	in.metrics.RecordFetchCycle("ok")
	in.metrics.RecordMarketRate(strconv.Itoa(obs.TermYears), obs.RateValue)
	in.metrics.RecordLatency("ingest_cycle", time.Since(start).Seconds())
	in.l.Info("observation recorded",
		applogger.String("date", obs.ObservedDate),
		applogger.Float64("rate", obs.RateValue),
		applogger.Int("term_years", obs.TermYears),
	)

	return &models.RunSummary{
		Ran:         true,
		Observation: obs,
		DurationMS:  time.Since(start).Milliseconds(),
	}, nil
}

// afterWrite refreshes the latest-rate cache and fans the observation
// out. Both are best-effort: the row is already safely stored.
func (in *RateIngestor) afterWrite(ctx context.Context, obs *models.RateObservation) {
	if b, err := json.Marshal(obs); err == nil {
		if err := in.cache.SetBytes(ctx, icache.LatestKey(obs.TermYears), b, in.latestTTL); err != nil {
			in.l.Warn("latest-rate cache refresh failed", applogger.Error(err))
		}
	}
	if err := in.pub.PublishObservation(ctx, obs); err != nil {
		in.l.Warn("observation publish failed", applogger.Error(err))
	}
	if in.feed != nil {
		in.feed.BroadcastObservation(obs)
	}
}

func (in *RateIngestor) recordFailure(err error) {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		in.metrics.RecordFetchCycle("fetch_error")
		in.metrics.RecordFetchError(fe.Kind)
	} else {
		in.metrics.RecordFetchCycle("store_error")
	}
	in.l.Error("ingest cycle failed", applogger.Error(err))
}
