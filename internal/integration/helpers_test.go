//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("pfas-test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	admin, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer admin.Close()

	require.NoError(t, admin.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadMockRecords reads the committed JSON record fixture produced by
// cmd/genmock.
func loadMockRecords(t *testing.T) []domain.RawMeasurementRecord {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "pfas_metingen_mock.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []domain.RawMeasurementRecord
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

// waitForRows polls the store until the live snapshot holds at least n rows.
func waitForRows(ctx context.Context, t *testing.T, store *dataset.Store, n int) {
	t.Helper()

	for {
		if snap := store.Current(); snap != nil && len(snap.Measurements) >= n {
			return
		}
		select {
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %d rows in the store", n)
		case <-time.After(100 * time.Millisecond):
		}
	}
}
