// Package config provides configuration loading, defaults, and validation for
// the substrate platform.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "substrate"
	DefaultDBMaxConns = 25

	DefaultNeo4jURI                   = "bolt://localhost:7687"
	DefaultNeo4jDatabase              = "neo4j"
	DefaultNeo4jMaxConnectionPoolSize = 50
	DefaultNeo4jConnectionTimeout     = 30 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "substrate-group"

	DefaultMilvusAddr = "localhost:19530"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 3 // mirrors the AsyncFlusher default worker-pool size

	// Default WalkEngine sampling weights, carried over verbatim from the
	// original engine's WalkParameters defaults.
	DefaultWalkWeightModel     = 0.35
	DefaultWalkWeightText      = 0.40
	DefaultWalkWeightRelation  = 0.15
	DefaultWalkWeightGeo       = 0.05
	DefaultWalkWeightHilbert   = 0.05
	DefaultWalkWeightRepeat    = 0.25
	DefaultWalkWeightNovelty   = 0.15
	DefaultWalkGoalAttraction  = 2.0
	DefaultWalkWeightEnergy    = 0.10
	DefaultWalkBaseTemperature = 0.4
	DefaultWalkAlpha           = 0.6
	DefaultWalkEnergyDecay     = 0.05
	DefaultWalkRecentWindow    = 16

	DefaultAStarMaxExpansions   = 10000
	DefaultAStarHeuristicWeight = 1.0
	DefaultAStarMinElo          = 800.0
	DefaultAStarMinObservations = 1.0

	DefaultNGramMinFrequency = 5
	DefaultNGramMinNPMI      = 0.3
	DefaultNGramMinEntropy   = 0.5
	DefaultNGramMaxLength    = 8

	// Default VoronoiConfig values, carried over from the original engine's
	// VoronoiConfig defaults.
	DefaultVoronoiSamplesPerCell = 1000
	DefaultVoronoiMaxNeighbors   = 32
	DefaultVoronoiSearchRadius   = 0.5

	DefaultOpenSearchAddr        = "http://localhost:9200"
	DefaultOpenSearchBulkBatchSize = 500
	DefaultOpenSearchScrollSize  = 1000
	DefaultOpenSearchIndexPrefix = "substrate"
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jMaxConnectionPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnectionTimeout
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0". We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── Milvus ────────────────────────────────────────────────────────────────
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}
	if cfg.Milvus.EmbeddingDim == 0 {
		cfg.Milvus.EmbeddingDim = 4
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.Mode == "" {
		cfg.Worker.Mode = "local"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = 16
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Walk ──────────────────────────────────────────────────────────────────
	if cfg.Walk.WeightModel == 0 {
		cfg.Walk.WeightModel = DefaultWalkWeightModel
	}
	if cfg.Walk.WeightText == 0 {
		cfg.Walk.WeightText = DefaultWalkWeightText
	}
	if cfg.Walk.WeightRelation == 0 {
		cfg.Walk.WeightRelation = DefaultWalkWeightRelation
	}
	if cfg.Walk.WeightGeo == 0 {
		cfg.Walk.WeightGeo = DefaultWalkWeightGeo
	}
	if cfg.Walk.WeightHilbert == 0 {
		cfg.Walk.WeightHilbert = DefaultWalkWeightHilbert
	}
	if cfg.Walk.WeightRepeat == 0 {
		cfg.Walk.WeightRepeat = DefaultWalkWeightRepeat
	}
	if cfg.Walk.WeightNovelty == 0 {
		cfg.Walk.WeightNovelty = DefaultWalkWeightNovelty
	}
	if cfg.Walk.GoalAttraction == 0 {
		cfg.Walk.GoalAttraction = DefaultWalkGoalAttraction
	}
	if cfg.Walk.WeightEnergy == 0 {
		cfg.Walk.WeightEnergy = DefaultWalkWeightEnergy
	}
	if cfg.Walk.BaseTemperature == 0 {
		cfg.Walk.BaseTemperature = DefaultWalkBaseTemperature
	}
	if cfg.Walk.Alpha == 0 {
		cfg.Walk.Alpha = DefaultWalkAlpha
	}
	if cfg.Walk.EnergyDecay == 0 {
		cfg.Walk.EnergyDecay = DefaultWalkEnergyDecay
	}
	if cfg.Walk.RecentWindow == 0 {
		cfg.Walk.RecentWindow = DefaultWalkRecentWindow
	}

	// ── AStar ─────────────────────────────────────────────────────────────────
	if cfg.AStar.MaxExpansions == 0 {
		cfg.AStar.MaxExpansions = DefaultAStarMaxExpansions
	}
	if cfg.AStar.HeuristicWeight == 0 {
		cfg.AStar.HeuristicWeight = DefaultAStarHeuristicWeight
	}
	if cfg.AStar.MinElo == 0 {
		cfg.AStar.MinElo = DefaultAStarMinElo
	}
	if cfg.AStar.MinObservations == 0 {
		cfg.AStar.MinObservations = DefaultAStarMinObservations
	}

	// ── NGram ─────────────────────────────────────────────────────────────────
	if cfg.NGram.MinFrequency == 0 {
		cfg.NGram.MinFrequency = DefaultNGramMinFrequency
	}
	if cfg.NGram.MinNPMI == 0 {
		cfg.NGram.MinNPMI = DefaultNGramMinNPMI
	}
	if cfg.NGram.MinEntropy == 0 {
		cfg.NGram.MinEntropy = DefaultNGramMinEntropy
	}
	if cfg.NGram.MaxNGramLength == 0 {
		cfg.NGram.MaxNGramLength = DefaultNGramMaxLength
	}

	// ── Voronoi ───────────────────────────────────────────────────────────────
	if cfg.Voronoi.SamplesPerCell == 0 {
		cfg.Voronoi.SamplesPerCell = DefaultVoronoiSamplesPerCell
	}
	if cfg.Voronoi.MaxNeighbors == 0 {
		cfg.Voronoi.MaxNeighbors = DefaultVoronoiMaxNeighbors
	}
	if cfg.Voronoi.SearchRadius == 0 {
		cfg.Voronoi.SearchRadius = DefaultVoronoiSearchRadius
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = DefaultOpenSearchBulkBatchSize
	}
	if cfg.OpenSearch.ScrollSize == 0 {
		cfg.OpenSearch.ScrollSize = DefaultOpenSearchScrollSize
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = DefaultOpenSearchIndexPrefix
	}
}
