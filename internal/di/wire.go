//go:build wireinject
// +build wireinject

package di

import (
	"github.com/MTxiong-wang/fundinsight-ai/pkg/config"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Upstream data plane
		ProvideGate,
		ProvideFundProvider,
		ProvideCodeSource,

		// Caching
		ProvideCacheService,
		ProvideFundCache,
		ProvideResultCache,

		// Optional infrastructure
		ProvideAdvisor,
		ProvideClickHouseClient,
		ProvideSnapshotStore,
		ProvideKafkaProducer,
		ProvideResultPublisher,
		ProvideRedisClient,

		// Use cases and queue
		ProvideFetchFunds,
		ProvideRankFunds,
		ProvideRankJob,
		ProvideQueue,

		// Delivery
		ProvideReportWriter,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
