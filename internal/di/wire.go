//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TraderGenie/internal/usecase"
	"TraderGenie/pkg/config"
	"TraderGenie/pkg/server"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideRegisterer,
	ProvideMetrics,
	ProvideRedisCache,
	ProvideGateway,
	ProvideMarketService,
	ProvideStrategyRepository,
	ProvideScanner,
)

// InitializeApp wires the full service.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		coreSet,

		ProvideClickHouseClient,
		ProvideSignalStore,
		ProvideKafkaProducer,
		ProvideSignalPublisher,

		ProvideStrategyService,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideScheduler,

		ProvideResources,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeScanner wires a scanner for one-shot runs without the
// history and fan-out sinks.
func InitializeScanner(cfg *config.Config) (*usecase.Scanner, error) {
	wire.Build(
		coreSet,
		ProvideEphemeralSignalStore,
		ProvideNoPublisher,
	)
	return &usecase.Scanner{}, nil
}
