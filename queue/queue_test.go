package queue

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/renatoramossilva/bindl-lib/logging"
	"github.com/renatoramossilva/bindl-lib/metrics"
)

func TestNewPublisherRequiresBrokers(t *testing.T) {
	_, err := NewPublisher(Config{}, "events", nil, nil)
	require.ErrorIs(t, err, ErrNoBrokers)
}

func TestNewConsumerRequiresBrokersAndHandler(t *testing.T) {
	handler := func(context.Context, Message) error { return nil }

	_, err := NewConsumer(Config{}, "events", "g", handler, nil, nil)
	require.ErrorIs(t, err, ErrNoBrokers)

	_, err = NewConsumer(Config{Brokers: []string{"localhost:9092"}}, "events", "g", nil, nil, nil)
	require.Error(t, err)
}

func TestNewRecordAssignsMessageID(t *testing.T) {
	rec := newRecord("events", []byte("k"), []byte(`{"a":1}`))

	assert.Equal(t, "events", rec.Topic)
	assert.Equal(t, []byte("k"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, messageIDHeader, rec.Headers[0].Key)

	id, err := uuid.Parse(string(rec.Headers[0].Value))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	// Every record gets a fresh ID.
	other := newRecord("events", nil, nil)
	assert.NotEqual(t, rec.Headers[0].Value, other.Headers[0].Value)
}

func TestConsumerHandleMapsRecord(t *testing.T) {
	exp, err := metrics.NewExporter(metrics.Config{}, nil)
	require.NoError(t, err)
	defer exp.Close()
	require.NoError(t, registerConsumerMetrics(exp))

	var got Message
	c := &Consumer{
		topic: "events",
		handler: func(_ context.Context, msg Message) error {
			got = msg
			return nil
		},
		logger:   logging.DefaultLogger(),
		exporter: exp,
	}

	ts := time.Now()
	c.handle(context.Background(), &kgo.Record{
		Topic:     "events",
		Key:       []byte("k"),
		Value:     []byte(`{"a":1}`),
		Timestamp: ts,
		Headers: []kgo.RecordHeader{
			{Key: "other", Value: []byte("x")},
			{Key: messageIDHeader, Value: []byte("id-123")},
		},
	})

	assert.Equal(t, "events", got.Topic)
	assert.Equal(t, []byte("k"), got.Key)
	assert.Equal(t, []byte(`{"a":1}`), got.Value)
	assert.Equal(t, "id-123", got.ID)
	assert.Equal(t, ts, got.Timestamp)

	var out bytes.Buffer
	_, err = exp.Registry().WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `queue_messages_consumed_total{topic="events",status="success"} 1`+"\n")
}

func TestConsumerHandleFailureIsCountedNotFatal(t *testing.T) {
	exp, err := metrics.NewExporter(metrics.Config{}, nil)
	require.NoError(t, err)
	defer exp.Close()
	require.NoError(t, registerConsumerMetrics(exp))

	c := &Consumer{
		topic: "events",
		handler: func(context.Context, Message) error {
			return errors.New("boom")
		},
		logger:   logging.New(logging.Config{Output: &bytes.Buffer{}}),
		exporter: exp,
	}

	c.handle(context.Background(), &kgo.Record{Topic: "events"})

	var out bytes.Buffer
	_, err = exp.Registry().WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `queue_messages_consumed_total{topic="events",status="failed"} 1`+"\n")
}
