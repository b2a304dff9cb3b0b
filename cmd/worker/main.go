// Package main is the distributed ingestion worker entry point: it consumes
// SubstrateBatch envelopes off Kafka and drains them through a local
// AsyncFlusher into the durable substrate store, the distributed
// generalization of the in-process bounded queue.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres/substratestore"
	kafkaclient "github.com/hartonomous/substrate/internal/infrastructure/messaging/kafka"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/prometheus"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
	"github.com/hartonomous/substrate/pkg/types/common"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workers := flag.Int("workers", 0, "AsyncFlusher worker count (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; falling back to environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}
	if *workers > 0 {
		cfg.Worker.Concurrency = *workers
	}

	logger, err := logging.NewLogger(toLoggingConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting substrate ingestion worker",
		logging.Int("flusher_workers", cfg.Worker.Concurrency),
		logging.Int("queue_depth", cfg.Worker.QueueDepth),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsCollector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "substrate_worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metrics := prometheus.NewAppMetrics(metricsCollector)

	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", logging.Err(err))
		os.Exit(1)
	}
	defer postgres.Close(pool)

	substrateStore := substratestore.New(pool)

	f := flusher.New(substrateStore, logger, cfg.Worker.Concurrency, cfg.Worker.QueueDepth)
	f.Start(ctx)

	topicMgr, err := kafkaclient.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Error("failed to connect topic manager", logging.Err(err))
		os.Exit(1)
	}
	if cfg.Kafka.AutoCreateTopics {
		if err := topicMgr.EnsureDefaultTopics(ctx); err != nil {
			logger.Warn("failed to ensure default topics", logging.Err(err))
		}
	}
	topicMgr.Close()

	consumer, err := kafkaclient.NewConsumer(kafkaclient.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{kafkaclient.TopicSubstrateBatches},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		RetryConfig: kafkaclient.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoffMS,
			DeadLetterTopic: kafkaclient.TopicDeadLetterIngestion,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create kafka consumer", logging.Err(err))
		os.Exit(1)
	}
	defer consumer.Close()

	if err := consumer.Subscribe(kafkaclient.TopicSubstrateBatches, batchHandler(f, logger, metrics)); err != nil {
		logger.Error("failed to subscribe to topic", logging.Err(err))
		os.Exit(1)
	}
	if err := consumer.Start(ctx); err != nil {
		logger.Error("failed to start kafka consumer", logging.Err(err))
		os.Exit(1)
	}

	healthSrv := startHealthServer(logger, metricsCollector)

	logger.Info("ingestion worker running", logging.String("topic", kafkaclient.TopicSubstrateBatches))
	<-ctx.Done()
	logger.Info("shutdown signal received, draining flusher queue")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := f.Shutdown(shutdownCtx); err != nil {
		logger.Error("flusher shutdown error", logging.Err(err))
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("ingestion worker stopped")
}

// batchHandler decodes an EventEnvelope whose Payload is a JSON-encoded
// flusher.SubstrateBatch and enqueues it on f. Enqueue blocks under
// backpressure rather than dropping the batch, so a slow Postgres applies
// natural backpressure to the Kafka consumer group.
func batchHandler(f *flusher.Flusher, logger logging.Logger, metrics *prometheus.AppMetrics) common.MessageHandler {
	return func(ctx context.Context, msg *common.Message) error {
		start := time.Now()

		env, err := kafkaclient.MessageToEventEnvelope(msg)
		if err != nil {
			return err
		}
		var batch flusher.SubstrateBatch
		if err := json.Unmarshal(env.Payload, &batch); err != nil {
			return err
		}

		records := batch.RecordCount()
		if err := f.Enqueue(ctx, &batch); err != nil {
			prometheus.RecordIngestion(metrics, env.Source, false, time.Since(start))
			return err
		}

		prometheus.RecordIngestion(metrics, env.Source, true, time.Since(start))
		logger.Debug("batch enqueued",
			logging.String("batch_id", env.EventID),
			logging.Int("records", records),
		)
		return nil
	}
}

func startHealthServer(logger logging.Logger, metrics prometheus.MetricsCollector) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultHealthPort),
		Handler: mux,
	}
	go func() {
		logger.Info("health server listening", logging.Int("port", defaultHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// toLoggingConfig adapts config.LogConfig (viper-bound, flat Output string)
// to logging.LogConfig (zap-native, Output/ErrorOutput path lists).
func toLoggingConfig(c config.LogConfig) logging.LogConfig {
	format := c.Format
	if format == "text" {
		format = "console"
	}
	output := c.Output
	if output == "" {
		output = "stdout"
	}
	return logging.LogConfig{
		Level:            c.Level,
		Format:           format,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
}
