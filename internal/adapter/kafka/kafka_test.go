package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRaw(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"PFAS":"PFOS"}`),
		Topic:     "pfas-measurements",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("rws")},
		},
	}

	raw := (&Reader{}).mapMessageToRaw(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"PFAS":"PFOS"}`, string(raw.Value))
	assert.Equal(t, "pfas-measurements", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "rws", raw.Headers["source"])
	assert.NotNil(t, raw.Commit)
}

func TestDeadLetterMessage(t *testing.T) {
	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	raw := domain.RawMessage{
		Key:       []byte("key-7"),
		Value:     []byte("not json"),
		Topic:     "pfas-measurements",
		Partition: 1,
		Offset:    7,
	}

	msg := deadLetterMessage(raw, errors.New("decoding measurement record: boom"), at)

	// The payload travels unchanged.
	assert.Equal(t, []byte("key-7"), msg.Key)
	assert.Equal(t, []byte("not json"), msg.Value)

	require.Len(t, msg.Headers, 5)
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "decoding measurement record: boom", headers["error"])
	assert.Equal(t, "pfas-measurements", headers["original_topic"])
	assert.Equal(t, "1", headers["original_partition"])
	assert.Equal(t, "7", headers["original_offset"])
	assert.Equal(t, "2026-03-09T08:30:00Z", headers["dead_lettered_at"])
}
