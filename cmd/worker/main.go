// Command worker consumes standardization requests from Kafka and publishes
// one result per request.  Requests that can never succeed, and requests
// that keep failing after the retry budget, go to the dead-letter topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/redis"
	"github.com/turtacn/molstandardizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molstandardizer/internal/interfaces/worker"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

const (
	topicPartitions  = 6
	topicReplication = 1
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	workerCount := flag.Int("workers", 0, "number of consumers in the group (default: worker.concurrency)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workerCount > 0 {
		cfg.Worker.Concurrency = *workerCount
	}

	logger, level, err := logging.NewLoggerWithLevel(cfg.Log.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if *configPath != "" {
		config.Watch(*configPath, func(next *config.Config) {
			level.SetLevel(logging.ParseLevel(next.Log.Level))
			logger.Info("log level reloaded", logging.String("level", next.Log.Level))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("molstd worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	infra := &workerInfrastructure{logger: logger}
	defer infra.Close()

	healthOpts := worker.HealthOptions{Addr: cfg.Worker.HealthAddr}
	var metrics *prometheus.StandardizationMetrics
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      true,
			EnableProcessMetrics: true,
		}, logger.Named("metrics"))
		if err != nil {
			return err
		}
		metrics = prometheus.NewStandardizationMetrics(collector)
		healthOpts.MetricsPath = cfg.Metrics.Path
		healthOpts.Metrics = collector.Handler()
		healthOpts.Reporter = metrics
	}
	health := worker.NewHealthServer(healthOpts, logger.Named("health"))

	deps := standardization.DefaultDependencies(logger.Named("standardization"))
	if metrics != nil {
		deps.Metrics = metrics
	}
	if err := infra.initStores(ctx, cfg, &deps, health); err != nil {
		return err
	}

	svc, err := standardization.NewService(standardization.Config{
		Concurrency:   cfg.Worker.Concurrency,
		RecordTimeout: cfg.Worker.RecordTimeout,
	}, deps)
	if err != nil {
		return err
	}

	if err := ensureTopics(ctx, cfg, logger); err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger.Named("producer"))
	if err != nil {
		return err
	}
	infra.closers = append(infra.closers, closer{"kafka producer", producer.Close})

	var handlerMetrics worker.Metrics
	if metrics != nil {
		handlerMetrics = metrics
	}
	handler, err := worker.NewHandler(svc, producer, cfg.Worker.ResultTopic, handlerMetrics, logger.Named("handler"))
	if err != nil {
		return err
	}

	consumers, err := startConsumers(ctx, cfg, handler, producer, logger)
	if err != nil {
		return err
	}
	health.Register("kafka", func(context.Context) error {
		for _, c := range consumers {
			if !c.Running() {
				return errors.New(errors.ErrCodeServiceUnavailable, "consumer stopped")
			}
		}
		return nil
	})

	if err := health.Start(); err != nil {
		stopConsumers(consumers, cfg.Worker.ShutdownTimeout, logger)
		return err
	}

	logger.Info("molstd worker started",
		logging.Int("consumers", len(consumers)),
		logging.String("request_topic", cfg.Worker.RequestTopic),
		logging.String("result_topic", cfg.Worker.ResultTopic))

	<-ctx.Done()
	logger.Info("received shutdown signal")

	stopConsumers(consumers, cfg.Worker.ShutdownTimeout, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	return nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("topics"))
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.StandardizationTopics(cfg.Worker, topicPartitions, topicReplication))
}

// startConsumers joins the consumer group once per configured worker.
// Kafka spreads the request partitions across them.
func startConsumers(ctx context.Context, cfg *config.Config, handler *worker.Handler, dlq kafka.Publisher, logger logging.Logger) ([]*kafka.Consumer, error) {
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, cfg.Worker), handler.Handle, dlq,
			logger.Named(fmt.Sprintf("consumer-%d", i)))
		if err == nil {
			err = c.Start(ctx)
		}
		if err != nil {
			stopConsumers(consumers, cfg.Worker.ShutdownTimeout, logger)
			return nil, err
		}
		consumers = append(consumers, c)
	}
	return consumers, nil
}

// stopConsumers closes every consumer, giving in-flight messages up to
// timeout to finish.
func stopConsumers(consumers []*kafka.Consumer, timeout time.Duration, logger logging.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Error("consumer close error", logging.Err(err))
			}
		}
	}()

	select {
	case <-done:
		logger.Info("all consumers finished")
	case <-time.After(timeout):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
}

type closer struct {
	name string
	fn   func() error
}

// workerInfrastructure holds the clients opened for the worker process.
type workerInfrastructure struct {
	logger  logging.Logger
	closers []closer
}

// initStores connects the result cache and repository when enabled.
func (w *workerInfrastructure) initStores(ctx context.Context, cfg *config.Config, deps *standardization.Dependencies, health *worker.HealthServer) error {
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, w.logger.Named("redis"))
		if err != nil {
			return err
		}
		w.closers = append(w.closers, closer{"redis", client.Close})
		deps.Cache = redis.NewResultCache(client, w.logger.Named("cache"))
		health.Register("redis", client.Ping)
	}

	if cfg.Postgres.Enabled {
		conn, err := postgres.NewConnection(cfg.Postgres, w.logger.Named("postgres"))
		if err != nil {
			return err
		}
		w.closers = append(w.closers, closer{"postgres", conn.Close})
		if err := conn.RunMigrations(); err != nil {
			return err
		}
		deps.Repository = repositories.NewResultRepository(conn, w.logger.Named("results"))
		health.Register("postgres", conn.HealthCheck)
	}
	return ctx.Err()
}

// Close releases clients in reverse order of creation.
func (w *workerInfrastructure) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		c := w.closers[i]
		if err := c.fn(); err != nil {
			w.logger.Error("close failed", logging.String("component", c.name), logging.Err(err))
		}
	}
}
