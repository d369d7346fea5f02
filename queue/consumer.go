package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/renatoramossilva/bindl-lib/logging"
	"github.com/renatoramossilva/bindl-lib/metrics"
)

const (
	consumedMetric       = "queue_messages_consumed_total"
	handleDurationMetric = "queue_handle_duration_seconds"
)

var handleBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// Handler processes one consumed message. A non-nil error marks the message
// as failed in the metrics but does not stop the consume loop.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads messages from one topic within a consumer group and invokes
// a handler per message.
type Consumer struct {
	client   *kgo.Client
	topic    string
	handler  Handler
	logger   *logging.Logger
	exporter *metrics.Exporter
}

// NewConsumer creates a consumer for topic in the given group. The exporter
// is optional; when set, consume counts and handler latency are recorded.
func NewConsumer(cfg Config, topic, group string, handler Handler, exporter *metrics.Exporter, logger *logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if handler == nil {
		return nil, errors.New("queue: handler is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("queue: create client: %w", err)
	}

	if exporter != nil {
		if err := registerConsumerMetrics(exporter); err != nil {
			client.Close()
			return nil, err
		}
	}

	return &Consumer{
		client:   client,
		topic:    topic,
		handler:  handler,
		logger:   logger,
		exporter: exporter,
	}, nil
}

func registerConsumerMetrics(exporter *metrics.Exporter) error {
	err := exporter.RegisterCounter(consumedMetric, "Total messages consumed by topic and result.", []string{"topic", "status"})
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return err
	}
	err = exporter.RegisterHistogram(handleDurationMetric, "Message handler duration in seconds.", []string{"topic"}, handleBuckets)
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return err
	}
	return nil
}

// Start blocks, polling for messages and invoking the handler for each one,
// until ctx is cancelled or the client is closed. Handler errors are logged
// and counted; they do not stop consumption.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Infof("consuming", map[string]any{"topic": c.topic})

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Errorf("fetch error", map[string]any{
				"topic":     topic,
				"partition": partition,
				"error":     err.Error(),
			})
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			c.handle(ctx, rec)
		})
	}
}

func (c *Consumer) handle(ctx context.Context, rec *kgo.Record) {
	msg := Message{
		Topic:     rec.Topic,
		Key:       rec.Key,
		Value:     rec.Value,
		Timestamp: rec.Timestamp,
	}
	for _, h := range rec.Headers {
		if h.Key == messageIDHeader {
			msg.ID = string(h.Value)
			break
		}
	}

	start := time.Now()
	err := c.handler(ctx, msg)
	c.record(start, err == nil)
	if err != nil {
		c.logger.Errorf("message handler failed", map[string]any{
			"topic":     msg.Topic,
			"messageId": msg.ID,
			"error":     err.Error(),
		})
	}
}

func (c *Consumer) record(start time.Time, success bool) {
	if c.exporter == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	_ = c.exporter.IncCounter(consumedMetric, map[string]string{"topic": c.topic, "status": status}, 1)
	_ = c.exporter.ObserveHistogram(handleDurationMetric, map[string]string{"topic": c.topic}, time.Since(start).Seconds())
}

// Close stops the consumer; a blocked Start returns after this is called.
func (c *Consumer) Close() {
	c.client.Close()
}
