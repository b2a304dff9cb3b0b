// Package config defines all configuration structures for the substrate
// platform. No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables for cmd/apiserver.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the durable
// substrate store (atoms, compositions, relations, physicality).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds Neo4j connection parameters for the accelerated
// relation-graph backend used by WalkEngine and AStarSearch neighbor queries.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// RedisConfig holds Redis connection parameters for the ingestion dedup sets
// and the atom lookup cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters for the
// ingestion worker pipeline (cmd/worker consumes SubstrateBatch envelopes,
// AsyncFlusher commits batches).
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters for the
// composition-text-to-id lookup index (mirrors the original v_composition_text view).
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MilvusConfig holds Milvus vector-store connection parameters for the
// 4-D spatial index over physicality centroids required by the datastore
// contract.
type MilvusConfig struct {
	Addr               string `mapstructure:"addr"`
	DBName             string `mapstructure:"db_name"`
	EmbeddingDim       int    `mapstructure:"embedding_dim"` // 4 for raw S3 points
	IndexType          string `mapstructure:"index_type"`
	HNSWM              int    `mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `mapstructure:"hnsw_ef_construction"`
	DefaultTopK        int    `mapstructure:"default_top_k"`
	CollectionPrefix   string `mapstructure:"collection_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters used to
// archive raw ingestion sources (model shards, UD treebanks, Tatoeba dumps).
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// WorkerConfig holds background-worker execution parameters shared by the
// AsyncFlusher pool and the Kafka consumer group in cmd/worker.
type WorkerConfig struct {
	Mode              string        `mapstructure:"mode"` // "local" | "distributed"
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoffMS    time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "text"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// WalkConfig holds the default WalkEngine sampling parameters. These
// become the zero-value WalkParameters whenever a caller does not override
// them explicitly.
type WalkConfig struct {
	WeightModel       float64 `mapstructure:"weight_model"`
	WeightText        float64 `mapstructure:"weight_text"`
	WeightRelation    float64 `mapstructure:"weight_relation"`
	WeightGeo         float64 `mapstructure:"weight_geo"`
	WeightHilbert     float64 `mapstructure:"weight_hilbert"`
	WeightRepeat      float64 `mapstructure:"weight_repeat"`
	WeightNovelty     float64 `mapstructure:"weight_novelty"`
	GoalAttraction    float64 `mapstructure:"goal_attraction"`
	WeightEnergy      float64 `mapstructure:"weight_energy"`
	BaseTemperature   float64 `mapstructure:"base_temperature"`
	Alpha             float64 `mapstructure:"alpha"`
	EnergyDecay       float64 `mapstructure:"energy_decay"`
	RecentWindow      int     `mapstructure:"recent_window"`
}

// AStarConfig holds AStarSearch defaults.
type AStarConfig struct {
	MaxExpansions int `mapstructure:"max_expansions"`

	// HeuristicWeight scales the geodesic heuristic. 1.0 is standard A*
	// (optimal); >1.0 is weighted A* (faster, no longer guaranteed optimal).
	HeuristicWeight float64 `mapstructure:"heuristic_weight"`

	// MinElo and MinObservations filter which relations are admissible
	// edges during neighbor expansion.
	MinElo          float64 `mapstructure:"min_elo"`
	MinObservations float64 `mapstructure:"min_observations"`

	// BeamWidth is loaded from beam_width; AStarSearch does not read it and
	// always explores the full frontier.
	BeamWidth int `mapstructure:"beam_width"`
}

// NGramConfig holds NGramExtractor defaults.
type NGramConfig struct {
	MinFrequency     int     `mapstructure:"min_frequency"`
	MinNPMI          float64 `mapstructure:"min_npmi"`
	MinEntropy       float64 `mapstructure:"min_entropy"`
	MaxNGramLength   int     `mapstructure:"max_ngram_length"`
}

// VoronoiConfig holds the Monte Carlo Voronoi cell analysis defaults
// (supplemented feature, grounded on VoronoiConfig).
type VoronoiConfig struct {
	SamplesPerCell int     `mapstructure:"samples_per_cell"`
	MaxNeighbors   int     `mapstructure:"max_neighbors"`
	SearchRadius   float64 `mapstructure:"search_radius"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire substrate
// platform. Every infrastructure component and reasoning/ingestion service
// reads its settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Milvus     MilvusConfig     `mapstructure:"milvus"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Walk       WalkConfig       `mapstructure:"walk"`
	AStar      AStarConfig      `mapstructure:"astar"`
	NGram      NGramConfig      `mapstructure:"ngram"`
	Voronoi    VoronoiConfig    `mapstructure:"voronoi"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Neo4j
	if c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}
	if c.Neo4j.Database == "" {
		return fmt.Errorf("config: neo4j.database is required")
	}
	if c.Neo4j.MaxConnectionPoolSize < 1 {
		return fmt.Errorf("config: neo4j.max_connection_pool_size must be ≥ 1, got %d", c.Neo4j.MaxConnectionPoolSize)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Milvus
	if c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required")
	}
	if c.Milvus.EmbeddingDim != 4 {
		return fmt.Errorf("config: milvus.embedding_dim must be 4 (S3 point components), got %d", c.Milvus.EmbeddingDim)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	// Walk
	if c.Walk.RecentWindow < 1 {
		return fmt.Errorf("config: walk.recent_window must be ≥ 1, got %d", c.Walk.RecentWindow)
	}
	if c.Walk.BaseTemperature <= 0 {
		return fmt.Errorf("config: walk.base_temperature must be > 0, got %f", c.Walk.BaseTemperature)
	}

	// AStar
	if c.AStar.MaxExpansions < 1 {
		return fmt.Errorf("config: astar.max_expansions must be ≥ 1, got %d", c.AStar.MaxExpansions)
	}

	// NGram
	if c.NGram.MaxNGramLength < 1 {
		return fmt.Errorf("config: ngram.max_ngram_length must be ≥ 1, got %d", c.NGram.MaxNGramLength)
	}

	// Voronoi
	if c.Voronoi.SamplesPerCell < 1 {
		return fmt.Errorf("config: voronoi.samples_per_cell must be ≥ 1, got %d", c.Voronoi.SamplesPerCell)
	}
	if c.Voronoi.SearchRadius <= 0 {
		return fmt.Errorf("config: voronoi.search_radius must be > 0, got %f", c.Voronoi.SearchRadius)
	}

	// OpenSearch
	if len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address")
	}
	if c.OpenSearch.BulkBatchSize < 1 {
		return fmt.Errorf("config: opensearch.bulk_batch_size must be ≥ 1, got %d", c.OpenSearch.BulkBatchSize)
	}
	if c.OpenSearch.IndexPrefix == "" {
		return fmt.Errorf("config: opensearch.index_prefix is required")
	}

	return nil
}
