package common

import (
	"context"
	"time"
)

// Message is a consumed broker message, independent of the underlying
// transport's own message type — internal/infrastructure/messaging/kafka
// converts kafka.Message into this shape so handler code never imports
// segmentio/kafka-go directly.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// MessageHandler processes a single consumed Message. Returning a non-nil
// error triggers the consumer's retry/dead-letter policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// ProducerMessage is an outbound broker message.
type ProducerMessage struct {
	Topic     string
	Partition int
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// BatchItemError records a single failed message within a PublishBatch call.
// Index is -1 when the underlying writer failed all messages as a group and
// no per-message attribution is available.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult is the outcome of a PublishBatch call.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// TopicConfig describes the desired state of a single broker topic for
// TopicManager.EnsureTopics/EnsureDefaultTopics.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}
