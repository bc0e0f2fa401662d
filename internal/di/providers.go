package di

import (
	"context"
	"fmt"
	"time"

	"RateWatch/internal/domain/repository"
	"RateWatch/internal/handler/api"
	mid "RateWatch/internal/middleware"
	internalrepo "RateWatch/internal/repository"
	"RateWatch/internal/service/auth"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/service/mnd"
	"RateWatch/internal/service/ratelimit"
	"RateWatch/internal/usecase"
	"RateWatch/pkg/config"
	xhttp "RateWatch/pkg/http"
	pkgkafka "RateWatch/pkg/kafka"
	applogger "RateWatch/pkg/logger"
	"RateWatch/pkg/metrics"
	pkgpg "RateWatch/pkg/postgres"
	"RateWatch/pkg/server"
)

// Table DDL applied at startup. The composite unique key on
// rate_history is what makes the scheduler's retries idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rate_history (
		id BIGSERIAL PRIMARY KEY,
		observed_date DATE NOT NULL,
		rate_type TEXT NOT NULL,
		rate_value DOUBLE PRECISION NOT NULL,
		term_years INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (observed_date, term_years)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		broker_id TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_broker ON clients (broker_id)`,
	`CREATE TABLE IF NOT EXISTS mortgages (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients (id) ON DELETE CASCADE,
		current_rate DOUBLE PRECISION NOT NULL,
		target_rate DOUBLE PRECISION,
		loan_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		term_years INT NOT NULL DEFAULT 30,
		lender TEXT,
		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mortgages_client ON mortgages (client_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePostgresClient creates a Postgres pool and applies the schema.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgpg.NewClient(ctx,
		pkgpg.WithHost(cfg.Postgres.Host),
		pkgpg.WithPort(cfg.Postgres.Port),
		pkgpg.WithDatabase(cfg.Postgres.Database),
		pkgpg.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		pkgpg.WithSSLMode(cfg.Postgres.SSLMode),
		pkgpg.WithPoolSize(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
		pkgpg.WithDialTimeout(cfg.Postgres.DialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	if err := client.InitSchema(ctx, schemaStatements); err != nil {
		client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return client, nil
}

// ProvideEventPublisher creates the Kafka publisher, or a no-op one
// when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.ObservationsTopic, cfg.Kafka.NotificationsTopic), nil
}

// ProvideCache creates the shared bytes cache, Redis-backed when
// enabled and in-process otherwise.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRateSource creates the market-rate source adapter.
func ProvideRateSource(cfg *config.Config) repository.RateSource {
	return mnd.New(
		cfg.RateSource.URL,
		cfg.RateSource.Timeout,
		cfg.RateSource.TermYears,
		cfg.RateSource.RateType,
		mnd.WithUserAgent(cfg.RateSource.UserAgent),
		mnd.WithSelectors(cfg.RateSource.RateSelector, cfg.RateSource.DateSelector),
	)
}

// ProvideRateStore creates the observation store.
func ProvideRateStore(pg *pkgpg.Client, l *applogger.Logger) repository.RateStore {
	store := internalrepo.NewPGRateStore(pg.Pool())
	store.SetLogger(l)
	return store
}

// ProvideClientStore creates the portfolio reader.
func ProvideClientStore(pg *pkgpg.Client, l *applogger.Logger) repository.ClientStore {
	store := internalrepo.NewPGClientStore(pg.Pool())
	store.SetLogger(l)
	return store
}

// ProvideNotificationStore creates the notification writer.
func ProvideNotificationStore(pg *pkgpg.Client, l *applogger.Logger) repository.NotificationStore {
	store := internalrepo.NewPGNotificationStore(pg.Pool())
	store.SetLogger(l)
	return store
}

// ProvideRateHub creates the websocket fan-out hub.
func ProvideRateHub(l *applogger.Logger) *mid.RateHub {
	return mid.NewRateHub(l)
}

// ProvideVerifier creates the credential verifier.
func ProvideVerifier(cfg *config.Config) *auth.Verifier {
	return auth.NewVerifier(cfg.Schedule.ServiceToken, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
}

// ProvideRateIngestor creates the fetch-and-store use case.
func ProvideRateIngestor(
	source repository.RateSource,
	store repository.RateStore,
	pub repository.EventPublisher,
	c icache.BytesCache,
	hub *mid.RateHub,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.RateIngestor {
	guard := ratelimit.New(cfg.RateSource.MinInterval)
	return usecase.NewRateIngestor(source, store, pub, c, hub, guard, m, l, cfg.Cache.LatestTTL)
}

// ProvideScheduler creates the business-hours scheduler.
func ProvideScheduler(ing *usecase.RateIngestor, cfg *config.Config, l *applogger.Logger) (*usecase.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	return usecase.NewScheduler(ing, loc, cfg.Schedule.StartHour, cfg.Schedule.EndHour, cfg.Schedule.TickInterval, l), nil
}

// ProvidePortfolioAnalytics creates the analytics use case.
func ProvidePortfolioAnalytics(
	clients repository.ClientStore,
	rates repository.RateStore,
	c icache.BytesCache,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PortfolioAnalytics {
	return usecase.NewPortfolioAnalytics(clients, rates, c, cfg.Cache.AnalyticsTTL, cfg.RateSource.TermYears, m, l)
}

// ProvideAlertDispatcher creates the alerting use case.
func ProvideAlertDispatcher(
	clients repository.ClientStore,
	rates repository.RateStore,
	notes repository.NotificationStore,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AlertDispatcher {
	return usecase.NewAlertDispatcher(clients, rates, notes, pub, m, l, cfg.RateSource.TermYears)
}

// ProvideHandler creates the HTTP handler surface.
func ProvideHandler(
	l *applogger.Logger,
	verifier *auth.Verifier,
	scheduler *usecase.Scheduler,
	portfolio *usecase.PortfolioAnalytics,
	alerts *usecase.AlertDispatcher,
	rates repository.RateStore,
	c icache.BytesCache,
	hub *mid.RateHub,
) xhttp.Handler {
	return api.NewRatesEchoHandler(l, verifier, scheduler, portfolio, alerts, rates, c, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	scheduler *usecase.Scheduler,
	hub *mid.RateHub,
	pub repository.EventPublisher,
	c icache.BytesCache,
	pg *pkgpg.Client,
) *server.App {
	return server.New(cfg, l, handler, scheduler, hub, pub, c, pg)
}
