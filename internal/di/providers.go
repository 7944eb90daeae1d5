package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	domsvc "github.com/MTxiong-wang/fundinsight-ai/internal/domain/service"
	"github.com/MTxiong-wang/fundinsight-ai/internal/handler/api"
	internalrepo "github.com/MTxiong-wang/fundinsight-ai/internal/repository"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/advisor"
	fundcache "github.com/MTxiong-wang/fundinsight-ai/internal/service/cache"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/discovery"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/morningstar"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/ratelimit"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/report"
	"github.com/MTxiong-wang/fundinsight-ai/internal/usecase"
	pkgcache "github.com/MTxiong-wang/fundinsight-ai/pkg/cache"
	pkgch "github.com/MTxiong-wang/fundinsight-ai/pkg/clickhouse"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/config"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	pkgkafka "github.com/MTxiong-wang/fundinsight-ai/pkg/kafka"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
	pkgmetrics "github.com/MTxiong-wang/fundinsight-ai/pkg/metrics"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/queue"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return pkgmetrics.New()
}

// ProvideGate creates the admission gate shared by all provider requests.
func ProvideGate(cfg *config.Config) *ratelimit.Gate {
	return ratelimit.NewGate(cfg.Provider.Concurrency, cfg.Provider.RequestDelay)
}

// ProvideFundProvider creates the Morningstar-backed fund provider.
func ProvideFundProvider(cfg *config.Config, gate *ratelimit.Gate, m domrepo.Metrics, lgr *applogger.Logger) domrepo.FundProvider {
	client := morningstar.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.Timeout,
		cfg.Provider.RateLimitBackoff,
		gate,
		lgr,
		m,
	)
	return morningstar.NewFetcher(client, lgr)
}

// ProvideCodeSource creates the CSIndex discovery source.
func ProvideCodeSource(cfg *config.Config, lgr *applogger.Logger) domsvc.CodeSource {
	store := discovery.NewNameStore(cfg.Discovery.NamesFile)
	return discovery.NewSource(
		cfg.Discovery.IndexURL,
		cfg.Discovery.PageSize,
		cfg.Discovery.RPS,
		cfg.Discovery.Burst,
		store,
		lgr,
	)
}

// ProvideCacheService selects the cache backend. The result cache always
// needs a backing store, so even with snapshot caching disabled this
// returns a memory cache.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		host, port, err := splitRedisAddr(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, err
		}
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "layered" {
			return pkgcache.NewLayeredCache(rc), nil
		}
		return rc, nil
	default:
		return pkgcache.NewMemoryCache(), nil
	}
}

func splitRedisAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("redis addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("redis addr %q: %w", addr, err)
	}
	return host, port, nil
}

// ProvideFundCache creates the per-fund snapshot cache, nil when disabled.
func ProvideFundCache(cfg *config.Config, svc pkgcache.Service) *fundcache.FundCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return fundcache.NewFundCache(svc, cfg.Cache.TTL)
}

// ProvideResultCache creates the ranking result cache.
func ProvideResultCache(cfg *config.Config, svc pkgcache.Service) *fundcache.ResultCache {
	return fundcache.NewResultCache(svc, cfg.Queue.ResultTTL)
}

// ProvideAdvisor creates the LLM advisor, nil when disabled. No API key
// means disabled, whatever the provider setting says.
func ProvideAdvisor(cfg *config.Config, lgr *applogger.Logger) (domsvc.Advisor, error) {
	if cfg.Advisor.Provider == "none" || cfg.Advisor.APIKey == "" {
		return nil, nil
	}
	a, err := advisor.New(
		cfg.Advisor.Provider,
		cfg.Advisor.Model,
		cfg.Advisor.APIKey,
		cfg.Advisor.BaseURL,
		cfg.Advisor.Temperature,
		cfg.Advisor.Timeout,
		lgr,
	)
	if err != nil {
		return nil, fmt.Errorf("advisor: %w", err)
	}
	return a, nil
}

// ProvideClickHouseClient creates the archive connection, nil when
// archiving is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Archive.Host),
		pkgch.WithPort(cfg.Archive.Port),
		pkgch.WithDatabase(cfg.Archive.Database),
		pkgch.WithCredentials(cfg.Archive.User, cfg.Archive.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.Archive.UseHTTP),
		pkgch.WithAsyncInsert(cfg.Archive.AsyncInsert, cfg.Archive.WaitForAsync),
		pkgch.WithTimeouts(cfg.Archive.DialTimeout, cfg.Archive.ReadTimeout, cfg.Archive.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.Archive.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore creates the cohort archive and ensures its schema.
func ProvideSnapshotStore(cfg *config.Config, client *pkgch.Client) (domrepo.SnapshotStore, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewFundArchive(client, cfg.Archive.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates the Kafka producer, nil when publishing
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Publish.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Publish.Brokers),
		pkgkafka.WithCompression(cfg.Publish.Compression),
		pkgkafka.WithRequiredAcks(cfg.Publish.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Publish.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Publish.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Publish.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Publish.Producer.WriteTimeout, cfg.Publish.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Publish.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Publish.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher creates the ranking publisher.
func ProvideResultPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewRankPublisher(producer, cfg.Publish.Topic)
}

// ProvideFetchFunds creates the concurrent fetch orchestrator.
func ProvideFetchFunds(cfg *config.Config, provider domrepo.FundProvider, cache *fundcache.FundCache, m domrepo.Metrics, lgr *applogger.Logger) *usecase.FetchFundsUseCase {
	return usecase.NewFetchFundsUseCase(provider, cache, m, lgr, cfg.Provider.Concurrency)
}

// ProvideRankFunds creates the ranking pipeline.
func ProvideRankFunds(
	source domsvc.CodeSource,
	fetch *usecase.FetchFundsUseCase,
	adv domsvc.Advisor,
	archive domrepo.SnapshotStore,
	publisher domrepo.ResultPublisher,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.RankFundsUseCase {
	return usecase.NewRankFundsUseCase(source, fetch, adv, archive, publisher, m, lgr)
}

// ProvideRankJob creates the queued ranking job.
func ProvideRankJob(cfg *config.Config, rank *usecase.RankFundsUseCase, results *fundcache.ResultCache, lgr *applogger.Logger) *usecase.RankSectorJob {
	return usecase.NewRankSectorJob(rank, results, cfg.Queue.JobTimeout, lgr)
}

// ProvideRedisClient creates the queue's Redis connection, nil when the
// queue is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue redis: %w", err)
	}
	return client, nil
}

// ProvideQueue creates the Redis job queue with the ranking job
// registered, nil when disabled. Workers start in App.Run.
func ProvideQueue(cfg *config.Config, client *redis.Client, job *usecase.RankSectorJob, lgr *applogger.Logger) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	return queue.NewRedisConsumer(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: 2,
		RetryDelay: time.Minute,
	}, client, []queue.Job{job})
}

// ProvideReportWriter creates the markdown report writer.
func ProvideReportWriter(cfg *config.Config, lgr *applogger.Logger) *report.Writer {
	return report.NewWriter(cfg.Report.OutputDir, cfg.Report.TopN, lgr)
}

// ProvideHandler creates the API handler and attaches the queue when
// async ranking is on.
func ProvideHandler(rank *usecase.RankFundsUseCase, results *fundcache.ResultCache, q *queue.RedisQueue, lgr *applogger.Logger) xhttp.Handler {
	h := api.NewRankHandler(rank, results, lgr)
	if q != nil {
		h.SetQueue(q)
	}
	return h
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler xhttp.Handler,
	rank *usecase.RankFundsUseCase,
	reports *report.Writer,
	q *queue.RedisQueue,
	chClient *pkgch.Client,
	publisher domrepo.ResultPublisher,
	rdb *redis.Client,
	cacheSvc pkgcache.Service,
) *server.App {
	app := server.New(cfg, lgr, handler, rank, reports)
	if q != nil {
		app.SetQueue(q)
	}
	if chClient != nil {
		app.SetClickHouse(chClient)
	}
	if publisher != nil {
		app.SetPublisher(publisher)
	}
	if rdb != nil {
		app.SetRedis(rdb)
	}
	app.SetCache(cacheSvc)
	return app
}
