package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/config"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// drainTimeout bounds how long ExtractBatch waits for follow-up messages
// after the first one arrives. A short window keeps ingest latency low on
// a trickling topic while still filling batches under load.
const drainTimeout = 250 * time.Millisecond

// Reader consumes raw measurement records from the ingest topic as part of
// a consumer group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured ingest topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch blocks until at least one message arrives, then drains
// follow-up messages for a short window, returning at most batchSize
// messages. Offsets are only advanced through each message's Commit
// callback, so uncommitted messages are redelivered after a restart.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]domain.RawMessage, 0, batchSize)
	batch = append(batch, r.mapMessageToRaw(first))

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			r.logger.Warn("draining batch stopped early", "error", err)
			break
		}
		batch = append(batch, r.mapMessageToRaw(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRaw converts a Kafka message into the transport-neutral
// representation the pipeline works with. The Commit callback marks the
// message as processed within the consumer group.
func (r *Reader) mapMessageToRaw(msg kafkago.Message) domain.RawMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return domain.RawMessage{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
