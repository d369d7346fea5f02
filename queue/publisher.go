package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/renatoramossilva/bindl-lib/logging"
	"github.com/renatoramossilva/bindl-lib/metrics"
)

const (
	publishedMetric       = "queue_messages_published_total"
	publishDurationMetric = "queue_publish_duration_seconds"
)

var publishBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Publisher sends JSON messages to one topic. Production is synchronous and
// requires acknowledgement from all in-sync replicas before returning.
type Publisher struct {
	client   *kgo.Client
	topic    string
	logger   *logging.Logger
	exporter *metrics.Exporter
}

// NewPublisher creates a publisher for topic. The exporter is optional; when
// set, publish counts and latency are recorded on it.
func NewPublisher(cfg Config, topic string, exporter *metrics.Exporter, logger *logging.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("queue: create client: %w", err)
	}

	if exporter != nil {
		if err := registerPublisherMetrics(exporter); err != nil {
			client.Close()
			return nil, err
		}
	}

	return &Publisher{
		client:   client,
		topic:    topic,
		logger:   logger,
		exporter: exporter,
	}, nil
}

func registerPublisherMetrics(exporter *metrics.Exporter) error {
	err := exporter.RegisterCounter(publishedMetric, "Total messages published by topic and result.", []string{"topic", "status"})
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return err
	}
	err = exporter.RegisterHistogram(publishDurationMetric, "Publish duration in seconds.", []string{"topic"}, publishBuckets)
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return err
	}
	return nil
}

// Publish JSON-encodes body, assigns a message ID and produces the record,
// blocking until the brokers acknowledge it.
func (p *Publisher) Publish(ctx context.Context, key []byte, body any) error {
	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("queue: encode message: %w", err)
	}
	return p.publish(ctx, newRecord(p.topic, key, value))
}

// PublishRaw produces an already-encoded value, assigning a message ID.
func (p *Publisher) PublishRaw(ctx context.Context, key, value []byte) error {
	return p.publish(ctx, newRecord(p.topic, key, value))
}

func (p *Publisher) publish(ctx context.Context, record *kgo.Record) error {
	start := time.Now()
	err := p.client.ProduceSync(ctx, record).FirstErr()
	p.record(start, err == nil)
	if err != nil {
		return fmt.Errorf("queue: publish to %q: %w", p.topic, err)
	}
	p.logger.Debugf("message published", map[string]any{
		"topic": p.topic,
		"bytes": len(record.Value),
	})
	return nil
}

func (p *Publisher) record(start time.Time, success bool) {
	if p.exporter == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	_ = p.exporter.IncCounter(publishedMetric, map[string]string{"topic": p.topic, "status": status}, 1)
	_ = p.exporter.ObserveHistogram(publishDurationMetric, map[string]string{"topic": p.topic}, time.Since(start).Seconds())
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}

// newRecord builds the produce record with a fresh message ID header.
func newRecord(topic string, key, value []byte) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: messageIDHeader, Value: []byte(uuid.NewString())},
		},
	}
}
