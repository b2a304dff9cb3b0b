package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newValidConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "debug",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "substrate",
			Password: "password",
			DBName:   "substrate",
			SSLMode:  "disable",
			MaxConns: 25,
		},
		Neo4j: Neo4jConfig{
			URI:                   "bolt://localhost:7687",
			User:                  "neo4j",
			Password:              "password",
			Database:              "neo4j",
			MaxConnectionPoolSize: 50,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "substrate-group",
		},
		OpenSearch: OpenSearchConfig{
			Addresses:     []string{"http://localhost:9200"},
			BulkBatchSize: 500,
			IndexPrefix:   "substrate",
		},
		Milvus: MilvusConfig{
			Addr:         "localhost:19530",
			EmbeddingDim: 4,
		},
		MinIO: MinIOConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "substrate",
		},
		Worker: WorkerConfig{
			Mode:        "local",
			Concurrency: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Walk: WalkConfig{
			BaseTemperature: 0.4,
			RecentWindow:    16,
		},
		AStar: AStarConfig{
			MaxExpansions: 10000,
		},
		NGram: NGramConfig{
			MaxNGramLength: 8,
		},
		Voronoi: VoronoiConfig{
			SamplesPerCell: 1000,
			SearchRadius:   0.5,
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := newValidConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := newValidConfig()
	cfg.Database.Host = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingNeo4jURI(t *testing.T) {
	cfg := newValidConfig()
	cfg.Neo4j.URI = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_ZeroNeo4jMaxConnectionPoolSize(t *testing.T) {
	cfg := newValidConfig()
	cfg.Neo4j.MaxConnectionPoolSize = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	cfg := newValidConfig()
	cfg.Log.Level = "invalid"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	cfg := newValidConfig()
	cfg.Server.Port = 70000
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_EmptyKafkaBrokers(t *testing.T) {
	cfg := newValidConfig()
	cfg.Kafka.Brokers = []string{}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingMilvusAddr(t *testing.T) {
	cfg := newValidConfig()
	cfg.Milvus.Addr = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_WrongMilvusEmbeddingDim(t *testing.T) {
	cfg := newValidConfig()
	cfg.Milvus.EmbeddingDim = 128
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_ZeroRecentWindow(t *testing.T) {
	cfg := newValidConfig()
	cfg.Walk.RecentWindow = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_ZeroMaxExpansions(t *testing.T) {
	cfg := newValidConfig()
	cfg.AStar.MaxExpansions = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_ZeroWorkerConcurrency(t *testing.T) {
	cfg := newValidConfig()
	cfg.Worker.Concurrency = 0
	err := cfg.Validate()
	assert.Error(t, err)
}
