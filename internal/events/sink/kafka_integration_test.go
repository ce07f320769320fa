//go:build integration

package sink_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"phraseguard/internal/events"
	"phraseguard/internal/events/sink"
	"phraseguard/internal/platform/config"
	"phraseguard/internal/platform/kafka"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/testutil/containers"
)

func TestKafkaSinkDeliversThroughBuffer(t *testing.T) {
	broker := containers.GetManager().GetKafka(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.KafkaConfig{
		Brokers:           broker.Brokers,
		EventsTopic:       "phraseguard.events." + uuid.NewString()[:8],
		ClientID:          "phraseguard-test",
		TopicPartitions:   1,
		ReplicationFactor: 1,
	}
	producer, err := kafka.New(ctx, cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg), "existing topic is not an error")

	checkID := id.CheckID(uuid.New())
	buffered := sink.NewBuffered(sink.NewKafka(producer, cfg.EventsTopic))
	require.NoError(t, buffered.Handle(ctx, events.CheckCompleted{CheckID: checkID, ViolationCount: 1, HasViolations: true, At: time.Now().UTC()}))
	buffered.Flush(ctx)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(cfg.EventsTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, checkID.String(), string(records[0].Key))

	var env sink.Envelope
	require.NoError(t, json.Unmarshal(records[0].Value, &env))
	require.Equal(t, events.NameCheckCompleted, env.Name)
}
