package di

import (
	"context"
	"fmt"
	"time"

	"TWPull/internal/domain/repository"
	"TWPull/internal/handler/api"
	internalrepo "TWPull/internal/repository"
	"TWPull/internal/service/tpex"
	"TWPull/internal/service/twse"
	"TWPull/internal/usecase"
	"TWPull/pkg/cache"
	pkgch "TWPull/pkg/clickhouse"
	"TWPull/pkg/config"
	xhttp "TWPull/pkg/http"
	pkgkafka "TWPull/pkg/kafka"
	"TWPull/pkg/logger"
	"TWPull/pkg/metrics"
	"TWPull/pkg/queue"
	"TWPull/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared upstream HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Collector.FetchTimeout),
		xhttp.WithRetry(cfg.Collector.RetryMax, cfg.Collector.RetryBackoff),
	)
}

// Sources bundles the two upstream exchange sources.
type Sources struct {
	TWSE repository.ExchangeSource
	TPEX repository.ExchangeSource
}

// ProvideSources creates the TWSE and TPEx exchange sources.
func ProvideSources(httpClient *xhttp.Client, cfg *config.Config) Sources {
	return Sources{
		TWSE: twse.New(httpClient, cfg.Collector.CacheDir),
		TPEX: tpex.New(httpClient, cfg.Collector.CacheDir),
	}
}

// ProvideInstrumentStore creates the qlib filesystem store.
func ProvideInstrumentStore(cfg *config.Config) repository.InstrumentStore {
	return internalrepo.NewQlibStore(cfg.Collector.QlibDir)
}

// ProvideRedisCache connects to Redis when enabled, or returns nil so the
// memory fallbacks kick in.
func ProvideRedisCache(cfg *config.Config, log *logger.Logger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("twpull"),
	)
	if err != nil {
		log.Warn("redis unavailable, falling back to memory cache", logger.Error(err))
		return nil
	}
	return rc
}

// ProvideRosterCache creates the roster cache: a memory-over-Redis layered
// cache when Redis is available, in-process memory otherwise.
func ProvideRosterCache(rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(rc)
	}
	return cache.NewMemoryCache()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// history store is not configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouseEnabled() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.index_snapshots (index_name String, symbol String, start_date Date, end_date Date, collected_at DateTime) ENGINE=MergeTree ORDER BY (index_name, collected_at, symbol)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.index_changes (index_name String, symbol String, change_date Date, change_type String) ENGINE=MergeTree ORDER BY (index_name, change_date, symbol)", db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideHistoryStore creates ClickHouse history storage, nil without a client.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	if chClient == nil {
		return nil
	}
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseHistory(chClient.DB(), db+".index_snapshots", db+".index_changes")
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
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
	return producer, nil
}

// ProvideChangePublisher creates the Kafka change publisher, nil without
// a producer.
func ProvideChangePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer for change ingestion, or nil
// when Kafka or the history store is not configured.
func ProvideKafkaConsumer(cfg *config.Config, history repository.HistoryStore) (*pkgkafka.Consumer, error) {
	if !cfg.KafkaEnabled() || history == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideChangesHandler registers the handler for the change topic.
func ProvideChangesHandler(history repository.HistoryStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaChangesHandler {
	if history == nil {
		return nil
	}
	return usecase.NewKafkaChangesHandler(cfg.Kafka.Topic, history, metrics)
}

// ProvideCollector creates the instrument collector use case.
func ProvideCollector(
	sources Sources,
	store repository.InstrumentStore,
	history repository.HistoryStore,
	pub repository.Publisher,
	rosterCache cache.Service,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.InstrumentCollector {
	return usecase.NewInstrumentCollector(
		sources.TWSE,
		sources.TPEX,
		store,
		history,
		pub,
		rosterCache,
		metrics,
		log,
		cfg.Collector.CacheDir,
		cfg.Collector.RosterCacheTTL,
	)
}

// ProvideHealthChecker creates the CSV data health checker.
func ProvideHealthChecker(cfg *config.Config, log *logger.Logger) *usecase.HealthChecker {
	return usecase.NewHealthChecker(
		cfg.HealthCheck.PriceStepThreshold,
		cfg.HealthCheck.VolumeStepThreshold,
		cfg.HealthCheck.MissingAllowance,
		log,
	)
}

// ProvideJobQueue creates the async collection queue when Redis is available.
func ProvideJobQueue(rc *cache.RedisCache, collector *usecase.InstrumentCollector, log *logger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, &queue.QueueConfig{Workers: 1, RetryLimit: 3}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewCollectJob(collector, log))
	return q
}

// ProvideApp creates the application with its HTTP handler attached.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.InstrumentCollector,
	checker *usecase.HealthChecker,
	store repository.InstrumentStore,
	history repository.HistoryStore,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaChangesHandler,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, err error) {
				log.Warn("change event rejected",
					logger.String("topic", topic),
					logger.Error(err))
			},
		})
	}

	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".log_digest",
			Publisher:      producer,
		})
	}

	var handlerKH pkgkafka.MessageHandler
	if kh != nil {
		handlerKH = kh
	}
	app := server.New(cfg, log, collector, checker, consumer, handlerKH, chClient, jobQueue)

	var jobs api.Enqueuer
	if jobQueue != nil {
		jobs = jobQueue
	}
	app.SetHTTPHandler(api.NewInstrumentsEchoHandler(log, collector, store, history, jobs))
	return app
}
