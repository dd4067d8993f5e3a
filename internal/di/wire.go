//go:build wireinject
// +build wireinject

package di

import (
	"TWPull/pkg/config"
	"TWPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideHTTPClient,
		ProvideRedisCache,
		ProvideRosterCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSources,
		ProvideInstrumentStore,
		ProvideHistoryStore,
		ProvideChangePublisher,

		// Use cases
		ProvideCollector,
		ProvideHealthChecker,
		ProvideChangesHandler,
		ProvideJobQueue,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
