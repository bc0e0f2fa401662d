//go:build wireinject
// +build wireinject

package di

import (
	"RateWatch/pkg/config"
	"RateWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideEventPublisher,
		ProvideCache,

		// Repositories and adapters
		ProvideRateSource,
		ProvideRateStore,
		ProvideClientStore,
		ProvideNotificationStore,
		ProvideRateHub,
		ProvideVerifier,

		// Use cases
		ProvideRateIngestor,
		ProvideScheduler,
		ProvidePortfolioAnalytics,
		ProvideAlertDispatcher,

		// HTTP surface and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
