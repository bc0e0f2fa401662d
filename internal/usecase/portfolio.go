package usecase

import (
	"context"
	"encoding/json"
	"time"

	"RateWatch/internal/domain/models"
	domrepo "RateWatch/internal/domain/repository"
	icache "RateWatch/internal/service/cache"
	applogger "RateWatch/pkg/logger"
)

// PortfolioAnalytics serves per-broker analytics snapshots, caching
// briefly since the underlying observation changes at most hourly.
type PortfolioAnalytics struct {
	clients   domrepo.ClientStore
	rates     domrepo.RateStore
	cache     icache.BytesCache
	ttl       time.Duration
	termYears int
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewPortfolioAnalytics(
	clients domrepo.ClientStore,
	rates domrepo.RateStore,
	cache icache.BytesCache,
	ttl time.Duration,
	termYears int,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *PortfolioAnalytics {
	return &PortfolioAnalytics{
		clients:   clients,
		rates:     rates,
		cache:     cache,
		ttl:       ttl,
		termYears: termYears,
		metrics:   metrics,
		l:         l,
	}
}

// Snapshot computes (or serves from cache) the analytics snapshot for
// one broker's portfolio against the latest stored observation. With no
// observation yet, the market rate is 0 and every mortgage counts as an
// opportunity; MarketRate on the snapshot lets callers tell.
func (p *PortfolioAnalytics) Snapshot(ctx context.Context, brokerID string) (*models.AnalyticsSnapshot, error) {
	start := time.Now()

	key := icache.AnalyticsKey(brokerID)
	if b, ok, err := p.cache.GetBytes(ctx, key); err == nil && ok {
		var snap models.AnalyticsSnapshot
		if json.Unmarshal(b, &snap) == nil {
			return &snap, nil
		}
	}

	clients, err := p.clients.ClientsByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	var marketRate float64
	obs, err := p.rates.Latest(ctx, p.termYears)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		marketRate = obs.RateValue
	}

	snap := ComputePortfolioAnalytics(clients, marketRate)

	if b, err := json.Marshal(&snap); err == nil {
		_ = p.cache.SetBytes(ctx, key, b, p.ttl)
	}
	p.metrics.RecordLatency("analytics_snapshot", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Debug("analytics snapshot",
			applogger.String("broker_id", brokerID),
			applogger.Int("clients", snap.TotalClients),
			applogger.Float64("market_rate", marketRate),
		)
	}
	return &snap, nil
}
