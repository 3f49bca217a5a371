//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/kafka"
	"github.com/couchcryptid/gulf-ocean-etl/internal/config"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSnapshotTopic = "test-ocean-snapshots"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("gulf-ocean-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublisher_RoundTrip publishes two category snapshots and reads them back
// with their keys and headers intact.
func TestPublisher_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSnapshotTopic: testSnapshotTopic}
	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	buoys := []byte(`{"updated":"2026-04-26T15:10:00Z","count":0,"buoys":[]}`)
	probes := []byte(`{"updated":"2026-04-26T15:10:00Z","count":0,"probes":[]}`)
	require.NoError(t, pub.Publish(ctx, "buoys", buoys, "2026-04-26T15:10:00Z"))
	require.NoError(t, pub.Publish(ctx, "probes", probes, "2026-04-26T15:10:00Z"))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSnapshotTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	got := map[string]kafkago.Message{}
	for len(got) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read snapshot")
		got[string(msg.Key)] = msg
	}

	for category, body := range map[string][]byte{"buoys": buoys, "probes": probes} {
		msg, ok := got[category]
		require.True(t, ok, category)
		assert.Equal(t, body, msg.Value)

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, category, headers["category"])
		assert.Equal(t, "2026-04-26T15:10:00Z", headers["updated"])
	}
}
