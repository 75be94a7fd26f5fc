//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ChallengeArena/pkg/config"
	applogger "ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup closes clients in reverse construction order.
func InitializeApp(cfg *config.Config, lgr *applogger.Logger) (*server.App, func(), error) {
	wire.Build(
		// Metrics and shared sources
		ProvideRegistry,
		ProvideMetrics,
		ProvideRand,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideHTTPClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories and external services
		ProvideMarketFeed,
		ProvideNotifyQueue,
		ProvideNotifier,
		ProvideArchive,
		ProvideVerdictPublisher,
		ProvideKafkaConsumer,

		// Use cases
		ProvideVerdictProcessor,
		ProvideVerdictPipeline,
		ProvidePriceStore,
		ProvideSignalLedger,
		ProvideChallengeManager,
		ProvideInvestigator,
		ProvideEngine,
		ProvideOrchestrator,
		ProvideArenaQuery,
		ProvideChartUseCase,

		// Transport
		ProvideArenaHandler,
		ProvideHub,
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
