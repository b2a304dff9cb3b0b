// Package main is the ingestion CLI entry point: it wraps the
// internal/ingestion/ingesters parsers and Pipeline behind per-source
// subcommands, writing computed compositions/relations either straight to
// the substrate store (cfg.Worker.Mode == "local") or as Kafka envelopes
// for cmd/worker to consume (cfg.Worker.Mode == "distributed").
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/atomstore"
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres/substratestore"
	kafkaclient "github.com/hartonomous/substrate/internal/infrastructure/messaging/kafka"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/ingestion/cache"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
	"github.com/hartonomous/substrate/internal/ingestion/ingesters"
	svc "github.com/hartonomous/substrate/internal/substrate"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// rootOptions holds global CLI flags, mirroring cmd/apiserver and
// cmd/worker's own config-path-plus-override flag conventions.
type rootOptions struct {
	configPath string
	mode       string
	chunkSize  int
}

// runtimeDeps is everything an ingest subcommand needs, built once in
// PersistentPreRunE and threaded through the command tree via context.
type runtimeDeps struct {
	cfg       *config.Config
	logger    logging.Logger
	service   *svc.Service
	cache     *cache.Cache
	sink      ingesters.BatchSink
	chunkSize int
	closers   []func()
}

type runtimeDepsKey struct{}

func main() {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:     "substrate",
		Short:   "substrate ingestion CLI — parse corpora into compositions and relations",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			deps, err := initRuntimeDeps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeDepsKey{}, deps))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if deps, ok := cmd.Context().Value(runtimeDepsKey{}).(*runtimeDeps); ok {
				for _, closeFn := range deps.closers {
					closeFn()
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "path to configuration file")
	pf.StringVar(&opts.mode, "mode", "", "ingestion mode: local or distributed (overrides config)")
	pf.IntVar(&opts.chunkSize, "chunk-size", 0, "sentence chunk size (overrides ingesters.ChunkSize)")

	root.AddCommand(
		newIngestUDCmd(),
		newIngestTatoebaCmd(),
		newIngestWiktionaryCmd(),
		newIngestTextCmd(),
		newIngestVocabCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initRuntimeDeps loads config, connects Postgres, preloads the atom cache,
// and builds the BatchSink for the configured mode (local Flusher wired
// straight to the store, or a Kafka producer publishing SubstrateBatch
// envelopes for cmd/worker).
func initRuntimeDeps(ctx context.Context, opts *rootOptions) (*runtimeDeps, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; falling back to environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if opts.mode != "" {
		cfg.Worker.Mode = opts.mode
	}

	logger, err := logging.NewLogger(toLoggingConfig(cfg.Log))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	substrateStore := substratestore.New(pool)
	atoms := atomstore.New(substrateStore)
	if err := atoms.PreloadAll(ctx); err != nil {
		postgres.Close(pool)
		return nil, fmt.Errorf("preload atom cache: %w", err)
	}
	logger.Info("atom cache preloaded")

	lookup := svc.AtomLookupFunc(func(ctx context.Context, codepoint uint32) (svc.AtomPosition, error) {
		info, err := atoms.Lookup(ctx, codepoint)
		if err != nil {
			return svc.AtomPosition{}, err
		}
		return svc.AtomPosition{AtomID: info.AtomID, Position: info.Centroid}, nil
	})
	service := svc.New(lookup)
	dedup := cache.New()

	deps := &runtimeDeps{cfg: cfg, logger: logger, service: service, cache: dedup, chunkSize: opts.chunkSize}
	deps.closers = append(deps.closers, func() { postgres.Close(pool) })

	switch strings.ToLower(cfg.Worker.Mode) {
	case "distributed":
		producer, err := kafkaclient.NewProducer(kafkaclient.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.ProducerRetries,
			BatchSize:    cfg.Kafka.BatchSize,
			WriteTimeout: time.Duration(cfg.Kafka.TimeoutMS) * time.Millisecond,
		}, logger)
		if err != nil {
			postgres.Close(pool)
			return nil, fmt.Errorf("connect kafka producer: %w", err)
		}
		deps.sink = &kafkaBatchSink{producer: producer, logger: logger}
		deps.closers = append(deps.closers, func() { producer.Close() })
		logger.Info("ingesting in distributed mode", logging.String("topic", kafkaclient.TopicSubstrateBatches))
	default:
		f := flusher.New(substrateStore, logger, cfg.Worker.Concurrency, cfg.Worker.QueueDepth)
		f.Start(ctx)
		deps.sink = f
		deps.closers = append(deps.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := f.Shutdown(shutdownCtx); err != nil {
				logger.Error("flusher shutdown error", logging.Err(err))
			}
		})
		logger.Info("ingesting in local mode",
			logging.Int("flusher_workers", cfg.Worker.Concurrency),
			logging.Int("queue_depth", cfg.Worker.QueueDepth),
		)
	}

	return deps, nil
}

func getRuntimeDeps(cmd *cobra.Command) (*runtimeDeps, error) {
	deps, ok := cmd.Context().Value(runtimeDepsKey{}).(*runtimeDeps)
	if !ok || deps == nil {
		return nil, fmt.Errorf("runtime dependencies not initialized")
	}
	return deps, nil
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
		output = "stderr"
	}
	return logging.LogConfig{
		Level:            c.Level,
		Format:           format,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
}
