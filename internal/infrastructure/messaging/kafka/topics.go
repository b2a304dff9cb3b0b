package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/types/common"
)

// Topic Constants. The ingestion pipeline publishes SubstrateBatch envelopes
// on TopicSubstrateBatches for cmd/worker to decode and commit through its
// own local Flusher; the reasoning
// engines publish completion events for downstream consumers (metrics,
// notification fan-out).
const (
	TopicIngestionRecordReceived = "ingestion.record_received"
	TopicIngestionBatchFlushed   = "ingestion.batch_flushed"
	TopicSubstrateBatches        = "substrate.batches"
	TopicCompositionDiscovered   = "composition.discovered"
	TopicWalkCompleted           = "walk.completed"
	TopicSearchCompleted         = "search.completed"
	TopicNotification            = "notification.send"
	TopicAuditLog                = "audit.log"
	TopicDeadLetterDefault       = "dead_letter.default"
	TopicDeadLetterIngestion     = "dead_letter.ingestion"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// IngestionRecordReceivedPayload announces that an ingester has parsed a raw
// source record and handed a SubstrateBatch to the flusher queue.
type IngestionRecordReceivedPayload struct {
	Source     string    `json:"source"` // "ud", "tatoeba", "wiktionary", "hf_vocab", "plain_text"
	RecordID   string    `json:"record_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// TopicSubstrateBatches carries the distributed-mode handoff for one
// ingester chunk of 10^4-10^5 items, computing compositions and relations in
// parallel: each EventEnvelope's Payload is a JSON-encoded
// internal/ingestion/flusher.SubstrateBatch, letting an ingester publish to
// this topic instead of handing the batch to an in-process flusher.Flusher
// directly. cmd/worker decodes the payload back into a SubstrateBatch and
// enqueues it on its own local Flusher.

// IngestionBatchFlushedPayload announces that AsyncFlusher committed a batch.
type IngestionBatchFlushedPayload struct {
	BatchID        string    `json:"batch_id"`
	Compositions   int       `json:"compositions"`
	Relations      int       `json:"relations"`
	Attempts       int       `json:"attempts"`
	FlushedAt      time.Time `json:"flushed_at"`
}

// CompositionDiscoveredPayload announces an NGramExtractor discovery.
type CompositionDiscoveredPayload struct {
	CompositionID string    `json:"composition_id"`
	Text          string    `json:"text"`
	NPMI          float64   `json:"npmi"`
	Frequency     int       `json:"frequency"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// WalkCompletedPayload announces a WalkEngine trajectory's termination.
type WalkCompletedPayload struct {
	StartID     string    `json:"start_id"`
	GoalID      string    `json:"goal_id,omitempty"`
	Steps       int       `json:"steps"`
	Reason      string    `json:"reason"`
	CompletedAt time.Time `json:"completed_at"`
}

// SearchCompletedPayload announces an AStarSearch outcome.
type SearchCompletedPayload struct {
	StartID       string    `json:"start_id"`
	GoalID        string    `json:"goal_id"`
	Found         bool      `json:"found"`
	NodesExpanded int       `json:"nodes_expanded"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NotificationPayload drives the operator-facing alert channel.
type NotificationPayload struct {
	RecipientID string `json:"recipient_id"`
	Channel     string `json:"channel"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Priority    string `json:"priority"`
}

// Helper functions for EventEnvelope

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseError, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, target)
}

func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseError, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return &common.ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseError, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager manages Kafka topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "brokers required")
	}
	// Connect to first broker (controller or any)
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMessageQueueError, "failed to dial kafka")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg common.TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.CodeInvalidParam, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.CodeInvalidParam, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.CodeInvalidParam, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}

	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	err := m.conn.CreateTopics(kCfg)
	if err != nil {
		if err.Error() == "topic already exists" {
			return nil
		}
		exists, _ := m.TopicExists(ctx, cfg.Name)
		if exists {
			return nil
		}
		return err
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	err := m.conn.DeleteTopics(name)
	if err != nil {
		return nil
	}
	m.logger.Warn("Topic deleted", logging.String("topic", name))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) ListTopics(ctx context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []common.TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) EnsureDefaultTopics(ctx context.Context) error {
	return m.EnsureTopics(ctx, DefaultTopics())
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

func DefaultTopics() []common.TopicConfig {
	const day = 24 * 3600 * 1000
	return []common.TopicConfig{
		{Name: TopicIngestionRecordReceived, NumPartitions: 12, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicIngestionBatchFlushed, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicSubstrateBatches, NumPartitions: 12, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicCompositionDiscovered, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicWalkCompleted, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 3 * day},
		{Name: TopicSearchCompleted, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 3 * day},
		{Name: TopicNotification, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 3 * day},
		{Name: TopicAuditLog, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 365 * day},
		{Name: TopicDeadLetterDefault, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * day},
		{Name: TopicDeadLetterIngestion, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * day},
	}
}
