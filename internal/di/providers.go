package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/internal/handler/api"
	"TraderGenie/internal/repository"
	"TraderGenie/internal/scheduler"
	"TraderGenie/internal/service/coingecko"
	"TraderGenie/internal/service/gateway"
	"TraderGenie/internal/usecase"
	"TraderGenie/pkg/cache"
	pkgch "TraderGenie/pkg/clickhouse"
	"TraderGenie/pkg/config"
	xhttp "TraderGenie/pkg/http"
	pkgkafka "TraderGenie/pkg/kafka"
	"TraderGenie/pkg/logger"
	"TraderGenie/pkg/metrics"
	"TraderGenie/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegisterer uses the default registry, which the Kafka producer
// metrics also live on.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics(reg prometheus.Registerer) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideRedisCache dials Redis when enabled. A nil cache means Redis is off.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideGateway builds the cached upstream gateway. With Redis enabled the
// store is layered: process memory first, Redis shared across replicas.
func ProvideGateway(cfg *config.Config, rc *cache.RedisCache, m *metrics.Recorder, l *logger.Logger) *gateway.Gateway {
	client := coingecko.New(
		coingecko.WithBaseURL(cfg.Upstream.BaseURL),
		coingecko.WithAPIKey(cfg.Upstream.APIKey),
		coingecko.WithTimeout(cfg.Upstream.FetchTimeout),
	)

	var store gateway.Store = gateway.NewMemoryStore()
	if rc != nil {
		store = gateway.NewLayeredStore(store, gateway.NewRedisStore(rc, cfg.Redis.StaleRetention))
	}

	opts := []gateway.Option{
		gateway.WithStore(store),
		gateway.WithCooldown(cfg.Upstream.Cooldown),
		gateway.WithTTL(gateway.TTLShort, cfg.Upstream.TTL.Short),
		gateway.WithTTL(gateway.TTLLong, cfg.Upstream.TTL.Long),
		gateway.WithFetchTimeout(cfg.Upstream.FetchTimeout),
		gateway.WithLogger(l),
		gateway.WithMetrics(m),
	}
	if cfg.Upstream.Breaker.Enabled {
		opts = append(opts, gateway.WithBreaker(cfg.Upstream.Breaker.MaxFailures, cfg.Upstream.Breaker.OpenTimeout))
	}
	return gateway.New(client, opts...)
}

func ProvideMarketService(cfg *config.Config, gw *gateway.Gateway) *usecase.MarketService {
	return usecase.NewMarketService(gw, cfg.Upstream.VsCurrency)
}

// ProvideStrategyRepository unifies built-ins with the user store: Redis
// when enabled, process memory otherwise.
func ProvideStrategyRepository(rc *cache.RedisCache) domainrepo.StrategyRepository {
	var users repository.UserStrategyStore = repository.NewMemoryStrategyStore()
	if rc != nil {
		users = repository.NewRedisStrategyStore(rc)
	}
	return repository.NewCatalog(repository.NewBuiltinStore(), users)
}

// ProvideClickHouseClient connects when enabled. A nil client means history
// stays in memory.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithCreateDatabase(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalStore picks ClickHouse when a client exists and creates its
// table, otherwise a bounded in-memory history.
func ProvideSignalStore(cfg *config.Config, ch *pkgch.Client) (domainrepo.SignalStore, error) {
	if ch == nil {
		return repository.NewMemorySignalStore(cfg.Scanner.HistorySize), nil
	}
	store := repository.NewClickHouseSignalStore(ch.DB(), cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher returns nil when there is no producer.
func ProvideSignalPublisher(cfg *config.Config, p *pkgkafka.Producer) domainrepo.SignalPublisher {
	if p == nil {
		return nil
	}
	return repository.NewKafkaSignalPublisher(p, cfg.Kafka.Topic)
}

func ProvideScanner(
	cfg *config.Config,
	strategies domainrepo.StrategyRepository,
	market *usecase.MarketService,
	store domainrepo.SignalStore,
	publisher domainrepo.SignalPublisher,
	m *metrics.Recorder,
	l *logger.Logger,
) *usecase.Scanner {
	orch := usecase.NewOrchestrator(
		usecase.WithWorkers(cfg.Scanner.Workers),
		usecase.WithOrchestratorLogger(l),
	)
	return usecase.NewScanner(strategies, market,
		usecase.WithOrchestrator(orch),
		usecase.WithSignalStore(store),
		usecase.WithSignalPublisher(publisher),
		usecase.WithScanMetrics(m),
		usecase.WithScanLogger(l),
		usecase.WithDefaults(usecase.ScanDefaults{
			Limit:         cfg.Scanner.DefaultLimit,
			MinConfidence: cfg.Scanner.MinConfidence,
			UniverseSize:  cfg.Upstream.UniverseSize,
		}),
	)
}

func ProvideStrategyService(repo domainrepo.StrategyRepository, l *logger.Logger) *usecase.StrategyService {
	return usecase.NewStrategyService(repo, l)
}

// ProvideHTTPHandler composes the API route groups.
func ProvideHTTPHandler(
	l *logger.Logger,
	store domainrepo.SignalStore,
	market *usecase.MarketService,
	strategies *usecase.StrategyService,
	scanner *usecase.Scanner,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewHealthHandler(store),
		api.NewMarketHandler(l, market),
		api.NewStrategiesHandler(l, strategies),
		api.NewScannerHandler(l, scanner),
	}
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, reg prometheus.Registerer, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		xhttp.WithMetrics(reg, prometheus.DefaultGatherer, metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideScheduler returns nil when no schedule is configured. With Redis
// on, ticks are locked so only one replica scans.
func ProvideScheduler(cfg *config.Config, scanner *usecase.Scanner, rc *cache.RedisCache, l *logger.Logger) (*scheduler.Scheduler, error) {
	if cfg.Scanner.Schedule == "" {
		return nil, nil
	}
	opts := []scheduler.Option{
		scheduler.WithLogger(l),
		scheduler.WithRunTimeout(2 * cfg.Upstream.FetchTimeout),
	}
	if rc != nil {
		opts = append(opts, scheduler.WithLocker(rc, 2*cfg.Upstream.FetchTimeout))
	}
	s := scheduler.New(scanner, opts...)
	if err := s.Register(cfg.Scanner.Schedule); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideResources lists what the app closes on shutdown, in open order.
func ProvideResources(rc *cache.RedisCache, ch *pkgch.Client, store domainrepo.SignalStore, publisher domainrepo.SignalPublisher) server.Resources {
	var res server.Resources
	if rc != nil {
		res = append(res, server.Resource{Name: "redis", Close: rc.Close})
	}
	if ch != nil {
		res = append(res, server.Resource{Name: "clickhouse", Close: ch.Close})
	}
	res = append(res, server.Resource{Name: "signal_store", Close: store.Close})
	if publisher != nil {
		res = append(res, server.Resource{Name: "signal_publisher", Close: publisher.Close})
	}
	return res
}

func ProvideApp(cfg *config.Config, srv *xhttp.Server, sched *scheduler.Scheduler, res server.Resources, l *logger.Logger) *server.App {
	return server.New(srv, sched, res, l, cfg.Server.ShutdownTimeout)
}

// ProvideEphemeralSignalStore keeps one-shot CLI scans out of shared history.
func ProvideEphemeralSignalStore(cfg *config.Config) domainrepo.SignalStore {
	return repository.NewMemorySignalStore(cfg.Scanner.HistorySize)
}

// ProvideNoPublisher disables fan-out for one-shot CLI scans.
func ProvideNoPublisher() domainrepo.SignalPublisher {
	return nil
}
