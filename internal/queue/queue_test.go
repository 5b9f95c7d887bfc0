package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/pedestrian-stats/internal/protocol"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisher_KeysByRunID(t *testing.T) {
	w := &fakeWriter{}
	pub := NewKafkaEventPublisher(&Producer{writer: w})

	err := pub.PublishEvents(context.Background(),
		protocol.NewTableStaged("run-9", "SENSOR", 3, "replace"),
		protocol.NewTableStaged("run-9", "PEDESTRIAN_PER_HOUR", 40, "replace"),
	)
	require.NoError(t, err)
	require.Len(t, w.messages, 2)

	for _, m := range w.messages {
		assert.Equal(t, "run-9", string(m.Key))
		assert.Equal(t, protocol.EventTableStaged, string(m.Headers[0].Value))
	}

	e, err := protocol.DecodeEvent(w.messages[1].Value)
	require.NoError(t, err)
	assert.Equal(t, "PEDESTRIAN_PER_HOUR", e.Table.Name)
	assert.Equal(t, 40, e.Table.Rows)

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestKafkaEventPublisher_Empty(t *testing.T) {
	w := &fakeWriter{err: errors.New("unreachable")}
	pub := NewKafkaEventPublisher(&Producer{writer: w})
	assert.NoError(t, pub.PublishEvents(context.Background()))
}

func TestProducer_WrapsWriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: cause}}

	err := p.PublishBatch(context.Background(), []kafka.Message{{Key: []byte("k"), Value: []byte("v")}})
	assert.ErrorIs(t, err, cause)
}

func TestCreateTopic_NoBrokers(t *testing.T) {
	assert.Error(t, CreateTopic(nil, "events", 1, 1))
}

var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = NopPublisher{}
)
