package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/internal/domain/repository"
	"ChallengeArena/internal/handler/api"
	"ChallengeArena/internal/handler/ws"
	mid "ChallengeArena/internal/middleware"
	internalrepo "ChallengeArena/internal/repository"
	"ChallengeArena/internal/service/market"
	"ChallengeArena/internal/service/notify"
	"ChallengeArena/internal/service/ratelimit"
	"ChallengeArena/internal/services/strategy"
	"ChallengeArena/internal/usecase"
	"ChallengeArena/pkg/cache"
	pkgch "ChallengeArena/pkg/clickhouse"
	"ChallengeArena/pkg/config"
	apphttp "ChallengeArena/pkg/http"
	pkgkafka "ChallengeArena/pkg/kafka"
	applogger "ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/metrics"
	"ChallengeArena/pkg/queue"
	"ChallengeArena/pkg/server"
	"ChallengeArena/pkg/util"
)

const serviceName = "challenge-arena"

// ProvideRegistry creates the process-wide Prometheus registry.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pkgkafka.SetMetricsRegisterer(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideRand returns the shared random source; seed 0 picks a random seed.
func ProvideRand(cfg *config.Config) util.Rand {
	return util.NewRand(cfg.Engine.Seed)
}

// ProvideRedisCache connects to Redis when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache picks the market cache backend. It doubles as the rollover
// lock, so "none" still gets an in-process cache.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) (cache.Service, func()) {
	switch cfg.Market.Cache {
	case "redis":
		return rc, func() {}
	case "layered":
		lc := cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(cfg.Market.CacheTTL/2))
		return lc, func() { _ = lc.Close() }
	default:
		mc := cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute))
		return mc, func() { _ = mc.Close() }
	}
}

// ProvideHTTPClient creates the outbound client for quotes and push providers.
func ProvideHTTPClient(cfg *config.Config) *apphttp.Client {
	return apphttp.NewClient(apphttp.WithTimeout(cfg.Market.FetchTimeout * 2))
}

// ProvideMarketFeed builds the quote source, cached unless market.cache is none.
func ProvideMarketFeed(cfg *config.Config, client *apphttp.Client, c cache.Service, rnd util.Rand, lgr *applogger.Logger) repository.MarketFeed {
	var feed repository.MarketFeed
	switch cfg.Market.Source {
	case "simulated":
		feed = market.NewSimulatedFeed(rnd)
	default:
		feed = market.NewYahooFeed(client, cfg.Market.Suffix,
			market.WithBaseURL(cfg.Market.BaseURL),
			market.WithRateLimit(cfg.Market.RateLimit, cfg.Market.RateBurst),
		)
	}
	if cfg.Market.Cache == "none" {
		return feed
	}
	return market.NewCachedFeed(feed, c, cfg.Market.CacheTTL, lgr)
}

// ProvideNotifyQueue creates the Redis job queue when notifications are queued.
func ProvideNotifyQueue(cfg *config.Config, rc *cache.RedisCache, lgr *applogger.Logger) *queue.RedisQueue {
	if cfg.Notifier.Delivery != "queue" || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(rc.Client(), lgr,
		queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
		queue.WithWorkers(cfg.Notifier.Workers),
		queue.WithRetry(cfg.Notifier.Retries, cfg.Notifier.Backoff),
	)
}

// ProvideNotifier wraps the configured push provider for fire-and-forget use.
func ProvideNotifier(cfg *config.Config, client *apphttp.Client, q *queue.RedisQueue, m repository.Metrics, lgr *applogger.Logger) repository.Notifier {
	n := cfg.Notifier
	var sender repository.Notifier
	switch n.Provider {
	case "onesignal":
		sender = notify.NewOneSignal(client, lgr, n.OneSignal.URL, n.OneSignal.AppID, n.OneSignal.APIKey, n.Retries, n.Backoff)
	case "telegram":
		sender = notify.NewTelegram(client, lgr, n.Telegram.BaseURL, n.Telegram.Token, n.Telegram.ChatID, n.Retries, n.Backoff)
	default:
		return notify.Noop{}
	}

	if q != nil {
		q.Register(
			notify.NewWinningTradeJob(sender, m),
			notify.NewChallengeWinnerJob(sender, m),
		)
		return notify.NewQueued(q)
	}
	return notify.NewAsync(sender, lgr, m, n.Timeout)
}

func clickhouseNeeded(cfg *config.Config) bool {
	return cfg.Archive.Backend == usecase.BackendClickHouse || cfg.Archive.Consume
}

// ProvideClickHouseClient connects only when ClickHouse is the archive or the consumer sink.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !clickhouseNeeded(cfg) {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithCompression(cfg.ClickHouse.Compress),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a producer when verdicts or logs go to Kafka.
// With log.collect set, aggregated error logs are shipped through it too.
func ProvideKafkaProducer(cfg *config.Config, lgr *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if cfg.Archive.Backend != usecase.BackendKafka && !cfg.Log.Collect {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(cfg.Environment != "production"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Log.Collect {
		lgr.AddCollector(&applogger.CollectionConfig{
			Service:        serviceName,
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushCount,
			Topic:          cfg.Log.Topic,
			Publisher:      internalrepo.NewKafkaLogPublisher(producer),
		})
	}
	return producer, func() {
		lgr.RemoveCollector()
		_ = producer.Close()
	}, nil
}

// ProvideArchive opens the queryable verdict store, or nil when there is none.
func ProvideArchive(cfg *config.Config, ch *pkgch.Client, lgr *applogger.Logger) (repository.Archive, func(), error) {
	var (
		archive repository.Archive
		err     error
	)
	switch {
	case cfg.Archive.Backend == usecase.BackendSQLite:
		archive, err = internalrepo.OpenSQLiteArchive(cfg.SQLite.Path, lgr)
		if err != nil {
			return nil, nil, err
		}
	case ch != nil:
		archive = internalrepo.NewClickHouseArchive(ch, cfg.ClickHouse.Database, lgr)
	default:
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = archive.Close()
		return nil, nil, fmt.Errorf("archive schema: %w", err)
	}
	return archive, func() { _ = archive.Close() }, nil
}

// ProvideVerdictPublisher creates the Kafka publisher for the kafka backend.
func ProvideVerdictPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if cfg.Archive.Backend != usecase.BackendKafka {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideVerdictProcessor routes events to the configured backend. Producer
// and archive lifetimes are owned by their providers.
func ProvideVerdictProcessor(cfg *config.Config, pub repository.Publisher, archive repository.Archive, m repository.Metrics) (*usecase.VerdictProcessor, error) {
	return usecase.NewVerdictProcessor(pub, archive, m, cfg.Archive.Backend)
}

// ProvideVerdictPipeline buffers verdict events between the decision pass and the backend.
func ProvideVerdictPipeline(cfg *config.Config, proc *usecase.VerdictProcessor, m repository.Metrics, lgr *applogger.Logger) *mid.VerdictPipeline {
	return mid.NewVerdictPipeline(proc, m, lgr,
		mid.WithBufferSize(cfg.Archive.BufferSize),
		mid.WithBatchSize(cfg.Archive.BatchSize),
		mid.WithRetry(cfg.Archive.RetryMax, cfg.Archive.BackoffMin, cfg.Archive.BackoffMax),
	)
}

// ProvideKafkaConsumer builds the Kafka -> archive consumer when archive.consume is set.
func ProvideKafkaConsumer(cfg *config.Config, archive repository.Archive, m repository.Metrics, lgr *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Archive.Consume {
		return nil, nil
	}
	if archive == nil {
		return nil, fmt.Errorf("archive.consume needs a clickhouse archive")
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(lgr),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewKafkaVerdictHandler(cfg.Kafka.Topic, archive, m))
	consumer.SetHook(archiveHook(m, lgr))
	return consumer, nil
}

// archiveHook times each archived message and counts handler failures.
func archiveHook(m repository.Metrics, lgr *applogger.Logger) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, data []byte) (context.Context, []byte, error) {
			if len(data) == 0 {
				return ctx, data, &pkgkafka.HookError{Code: "ERR_EMPTY"}
			}
			return pkgkafka.WithStartTime(ctx, time.Now()), data, nil
		},
		After: func(ctx context.Context, topic string, _ []byte, err error) {
			if start, ok := pkgkafka.StartTime(ctx); ok && err == nil {
				m.RecordLatency("archive_"+topic, time.Since(start).Seconds())
			}
		},
		Err: func(_ context.Context, topic string, _ []byte, err error) {
			m.RecordError("archive_consume")
			lgr.Warn("archive message failed", applogger.String("topic", topic), applogger.Error(err))
		},
	}
}

func ProvidePriceStore(cfg *config.Config, feed repository.MarketFeed, m repository.Metrics, lgr *applogger.Logger) *usecase.PriceStore {
	return usecase.NewPriceStore(feed, m, lgr, cfg.Market.FetchTimeout)
}

func ProvideSignalLedger(cfg *config.Config) *usecase.SignalLedger {
	return usecase.NewSignalLedger(cfg.Ledger.SignalCapacity, cfg.Ledger.VerdictCapacity)
}

func ProvideChallengeManager(cfg *config.Config, lgr *applogger.Logger) *usecase.ChallengeManager {
	return usecase.NewChallengeManager(usecase.ChallengeConfig{
		TradingDays: cfg.Challenge.TradingDays,
		Weekend:     util.ParseWeekdays(cfg.Challenge.Weekend),
		CapitalBase: cfg.Challenge.CapitalBase,
	}, strategy.IDs(), lgr)
}

func ProvideInvestigator(cfg *config.Config, rnd util.Rand) *usecase.Investigator {
	ic := usecase.DefaultInvestigatorConfig()
	ic.PriceTolerance = cfg.Engine.PriceTolerance
	ic.AuditRejectProb = cfg.Engine.AuditRejectProb
	return usecase.NewInvestigator(ic, rnd)
}

func ProvideEngine(cfg *config.Config, rnd util.Rand) *strategy.Engine {
	emission := make(map[models.Category]float64, len(cfg.Engine.Emission))
	for k, v := range cfg.Engine.Emission {
		emission[models.Category(k)] = v
	}
	return strategy.NewEngine(rnd, emission)
}

// ProvideOrchestrator schedules both passes and the weekly rollover.
func ProvideOrchestrator(
	cfg *config.Config,
	prices *usecase.PriceStore,
	engine *strategy.Engine,
	ledger *usecase.SignalLedger,
	inv *usecase.Investigator,
	challenge *usecase.ChallengeManager,
	notifier repository.Notifier,
	pipeline *mid.VerdictPipeline,
	locker cache.Service,
	m repository.Metrics,
	rnd util.Rand,
	lgr *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Tickers:      cfg.Market.Tickers,
		PriceSpec:    "@every " + cfg.Market.RefreshInterval.String(),
		DecisionSpec: "@every " + cfg.Engine.DecisionInterval.String(),
		RolloverSpec: cfg.Challenge.Rollover,
		PnLMin:       cfg.Engine.PnLMin,
		PnLMax:       cfg.Engine.PnLMax,
	}, usecase.OrchestratorDeps{
		Roster:       strategy.Roster,
		Prices:       prices,
		Engine:       engine,
		Ledger:       ledger,
		Investigator: inv,
		Challenge:    challenge,
		Notifier:     notifier,
		Sink:         pipeline,
		Locker:       locker,
		Metrics:      m,
		Logger:       lgr,
		Rand:         rnd,
	})
}

func ProvideArenaQuery(prices *usecase.PriceStore, ledger *usecase.SignalLedger, challenge *usecase.ChallengeManager, archive repository.Archive) *usecase.ArenaQuery {
	return usecase.NewArenaQuery(usecase.ArenaQueryDeps{
		Roster:    strategy.Roster,
		Prices:    prices,
		Ledger:    ledger,
		Challenge: challenge,
		Archive:   archive,
		Market:    market.TadawulHours().Status,
	})
}

func ProvideChartUseCase(feed repository.MarketFeed) *usecase.ChartUseCase {
	return usecase.NewChartUseCase(feed)
}

func ProvideArenaHandler(cfg *config.Config, lgr *applogger.Logger, q *usecase.ArenaQuery, chart *usecase.ChartUseCase) *api.ArenaEchoHandler {
	return api.NewArenaEchoHandler(lgr, q, chart, cfg.Server.AdminToken)
}

func ProvideHub(cfg *config.Config, q *usecase.ArenaQuery, lgr *applogger.Logger) *ws.Hub {
	return ws.NewHub(q, lgr, ws.WithInterval(cfg.Server.BroadcastInterval))
}

// ProvideRateLimiter returns nil when server.rate_limit is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideHTTPServer mounts the API and the live feed on one echo instance.
func ProvideHTTPServer(
	cfg *config.Config,
	lgr *applogger.Logger,
	reg *prometheus.Registry,
	h *api.ArenaEchoHandler,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	archive repository.Archive,
) *apphttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []apphttp.ServerOption{
		apphttp.WithPort(cfg.Server.Port),
		apphttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		apphttp.WithMetrics(metricsPath, reg, reg),
	}
	if archive != nil {
		opts = append(opts, apphttp.WithHealthCheck("archive", archive.Health))
	}
	if limiter != nil {
		skip := []string{"/healthz", "/ws/live"}
		if metricsPath != "" {
			skip = append(skip, metricsPath)
		}
		opts = append(opts, apphttp.WithMiddleware(limiter.Middleware(skip...)))
	}
	return apphttp.NewServer(lgr, []apphttp.Handler{h, hub}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	orch *usecase.Orchestrator,
	challenge *usecase.ChallengeManager,
	notifier repository.Notifier,
	pipeline *mid.VerdictPipeline,
	proc *usecase.VerdictProcessor,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	srv *apphttp.Server,
) *server.App {
	return server.New(cfg, lgr, server.Components{
		Orchestrator: orch,
		Challenge:    challenge,
		Notifier:     notifier,
		Pipeline:     pipeline,
		Processor:    proc,
		Consumer:     consumer,
		Queue:        q,
		Hub:          hub,
		Limiter:      limiter,
		HTTP:         srv,
	})
}
