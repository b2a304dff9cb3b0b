package main

import (
	"context"

	kafkaclient "github.com/hartonomous/substrate/internal/infrastructure/messaging/kafka"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
)

// kafkaBatchSink implements ingesters.BatchSink by publishing each merged
// SubstrateBatch as an EventEnvelope on kafka.TopicSubstrateBatches,
// letting cmd/worker's consumer group drain it into the store instead of
// this process writing to Postgres directly — the distributed
// generalization of the in-process flusher queue.
type kafkaBatchSink struct {
	producer *kafkaclient.Producer
	logger   logging.Logger
}

func (s *kafkaBatchSink) Enqueue(ctx context.Context, batch *flusher.SubstrateBatch) error {
	if batch.IsEmpty() {
		return nil
	}

	env, err := kafkaclient.NewEventEnvelope("substrate.batch", "cmd/substrate", batch)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(kafkaclient.TopicSubstrateBatches)
	if err != nil {
		return err
	}
	if err := s.producer.Publish(ctx, msg); err != nil {
		return err
	}

	s.logger.Debug("batch published",
		logging.String("batch_id", env.EventID),
		logging.Int("records", batch.RecordCount()),
	)
	return nil
}
