//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SalesCast/pkg/config"
	"SalesCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application with a cleanup
// that closes the store, publisher and cache.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure
		ProvideRunStore,
		ProvidePublisher,
		ProvideCache,
		ProvideDatasetSource,

		// Services
		ProvideEngine,
		ProvideCleaner,
		ProvideReporter,

		// Use cases
		ProvideForecaster,
		ProvidePipeline,
		ProvideRunsUseCase,

		// Transport
		ProvideForecastHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
