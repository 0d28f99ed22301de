package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
)

type mockKafkaConn struct {
	created    []kafka.TopicConfig
	createErr  error
	partitions map[string][]kafka.Partition
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, topics...)
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	var out []kafka.Partition
	for _, t := range topics {
		out = append(out, m.partitions[t]...)
	}
	return out, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "a.b.dlq", DeadLetterTopic("a.b"))
	assert.Equal(t, "a.b.dlq", DeadLetterTopic("a.b.dlq"))
}

func TestStandardizationTopics(t *testing.T) {
	topics := StandardizationTopics(config.WorkerConfig{RequestTopic: "req", ResultTopic: "res"}, 6, 3)
	require.Len(t, topics, 3)
	assert.Equal(t, "req", topics[0].Name)
	assert.Equal(t, "res", topics[1].Name)
	assert.Equal(t, "req.dlq", topics[2].Name)
	assert.Equal(t, 6, topics[0].NumPartitions)
	assert.Equal(t, 1, topics[2].NumPartitions)

	topics = StandardizationTopics(config.WorkerConfig{RequestTopic: "req", ResultTopic: "res", DLQTopic: "dead"}, 1, 1)
	assert.Equal(t, "dead", topics[2].Name)
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &mockKafkaConn{}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}

	err := m.EnsureTopics(context.Background(), StandardizationTopics(config.WorkerConfig{RequestTopic: "req", ResultTopic: "res"}, 3, 1))
	require.NoError(t, err)
	require.Len(t, conn.created, 3)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
}

func TestTopicManager_CreateTopic_Validation(t *testing.T) {
	m := &TopicManager{conn: &mockKafkaConn{}, logger: logging.NewNopLogger()}
	ctx := context.Background()
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}))
}

func TestTopicManager_CreateTopic_Existing(t *testing.T) {
	conn := &mockKafkaConn{
		createErr:  errors.New("topic already exists"),
		partitions: map[string][]kafka.Partition{"req": {{Topic: "req"}}},
	}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}

	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "req", NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "other", NumPartitions: 1, ReplicationFactor: 1}))
}
