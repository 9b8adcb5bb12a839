package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/config"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// DeadLetterWriter publishes undecodable payloads to the dead-letter topic.
// It implements pipeline.DeadLetterer.
type DeadLetterWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewDeadLetterWriter creates a Kafka producer for the configured
// dead-letter topic.
func NewDeadLetterWriter(cfg *config.Config, logger *slog.Logger) *DeadLetterWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDeadLetterTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &DeadLetterWriter{writer: w, logger: logger}
}

// DeadLetter publishes the message with its payload byte-for-byte intact,
// so quarantined records can be inspected and replayed. The failure cause
// and original position travel as headers.
func (w *DeadLetterWriter) DeadLetter(ctx context.Context, raw domain.RawMessage, cause error) error {
	msg := deadLetterMessage(raw, cause, time.Now().UTC())
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	w.logger.Info("dead-lettered message",
		"original_topic", raw.Topic,
		"original_offset", raw.Offset,
		"cause", cause,
	)
	return nil
}

func (w *DeadLetterWriter) Close() error {
	return w.writer.Close()
}

// deadLetterMessage wraps the original payload for the dead-letter topic.
func deadLetterMessage(raw domain.RawMessage, cause error, at time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   raw.Key,
		Value: raw.Value,
		Headers: []kafkago.Header{
			{Key: "error", Value: []byte(cause.Error())},
			{Key: "original_topic", Value: []byte(raw.Topic)},
			{Key: "original_partition", Value: []byte(strconv.Itoa(raw.Partition))},
			{Key: "original_offset", Value: []byte(strconv.FormatInt(raw.Offset, 10))},
			{Key: "dead_lettered_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}
}
