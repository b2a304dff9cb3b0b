// Package main is the API server entry point for the substrate platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hartonomous/substrate/internal/atomstore"
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres"
	"github.com/hartonomous/substrate/internal/infrastructure/database/postgres/substratestore"
	"github.com/hartonomous/substrate/internal/infrastructure/database/redis"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/infrastructure/search/opensearch"
	httpserver "github.com/hartonomous/substrate/internal/interfaces/http"
	"github.com/hartonomous/substrate/internal/interfaces/http/handlers"
	"github.com/hartonomous/substrate/internal/interfaces/http/middleware"
	"github.com/hartonomous/substrate/internal/reasoning/astar"
	"github.com/hartonomous/substrate/internal/reasoning/walk"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
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
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(toLoggingConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting substrate API server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", logging.Err(err))
		os.Exit(1)
	}
	defer postgres.Close(pool)

	redisClient, err := redis.NewClient(&redis.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to redis", logging.Err(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	substrateStore := substratestore.New(pool)

	atoms := atomstore.New(substrateStore)
	if err := atoms.PreloadAll(ctx); err != nil {
		logger.Error("failed to preload atom cache", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("atom cache preloaded")

	walkEngine := walk.New(substrateStore.Relations(), substrateStore.Physicalities(), substrateStore.Compositions())

	var textLookup astar.TextLookup
	if ti, err := newCompositionTextLookup(cfg.OpenSearch, logger); err != nil {
		logger.Warn("composition-text lookup unavailable, SearchText/FindComposition disabled", logging.Err(err))
	} else {
		textLookup = ti
	}
	astarEngine := astar.New(substrateStore.Relations(), substrateStore.Compositions(), textLookup)

	healthHandler := handlers.NewHealthHandler(
		"dev",
		&postgresHealthAdapter{pool: pool},
		&redisHealthAdapter{client: redisClient},
	)
	substrateHandler := handlers.NewSubstrateHandler(walkEngine, astarEngine, atoms, cfg.Walk, cfg.AStar)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    healthHandler,
		SubstrateHandler: substrateHandler,
		CORSConfig:       middleware.DefaultCORSConfig(),
		LoggingConfig:    middleware.DefaultLoggingConfig(),
		RateLimiter:      middleware.NewTokenBucketLimiter(rateLimitCfg.RequestsPerSecond, rateLimitCfg.BurstSize, rateLimitCfg.CleanupInterval),
		RateLimitConfig:  rateLimitCfg,
		Logger:           logger,
	})

	srv := httpserver.NewServer(httpserver.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("HTTP server error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newCompositionTextLookup wires an opensearch.CompositionTextIndex, which
// satisfies astar.TextLookup, from the root OpenSearch config. A nil
// TextLookup is a supported degraded mode (astar.New's doc comment), so
// callers log and continue rather than failing startup.
func newCompositionTextLookup(cfg config.OpenSearchConfig, logger logging.Logger) (*opensearch.CompositionTextIndex, error) {
	client, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses: cfg.Addresses,
		Username:  cfg.User,
		Password:  cfg.Password,
	}, logger)
	if err != nil {
		return nil, err
	}
	indexer := opensearch.NewIndexer(client, opensearch.IndexerConfig{BulkBatchSize: cfg.BulkBatchSize}, logger)
	searcher := opensearch.NewSearcher(client, opensearch.SearcherConfig{}, logger)
	indexName := cfg.IndexPrefix + "composition_text"

	textIndex := opensearch.NewCompositionTextIndex(indexer, searcher, indexName)
	if err := textIndex.EnsureIndex(context.Background()); err != nil {
		return nil, err
	}
	return textIndex, nil
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// toLoggingConfig adapts the application's config.LogConfig (viper-bound,
// flat Output string) to logging.LogConfig (zap-native, Output/ErrorOutput
// path lists).
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
