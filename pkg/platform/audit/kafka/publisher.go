// Package kafka publishes audit events to a Kafka topic.
//
// Emit never blocks on the broker: records are handed to the franz-go client,
// which batches and retries in the background. Delivery failures are logged
// and counted, not returned, so the vote ledger never depends on the audit
// pipeline being up.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "ballotbox/pkg/platform/audit"
)

// Config selects the brokers and topic.
type Config struct {
	Brokers     []string
	Topic       string
	ClientID    string
	DialTimeout time.Duration
}

// Metrics holds Prometheus metrics for audit delivery.
type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_audit_published_total",
			Help: "Total number of audit events acknowledged by the broker",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ballotbox_audit_publish_failures_total",
			Help: "Total number of audit events the broker did not accept",
		}),
	}
}

func (m *Metrics) incPublished() {
	if m == nil {
		return
	}
	m.Published.Inc()
}

func (m *Metrics) incFailed() {
	if m == nil {
		return
	}
	m.Failed.Inc()
}

// Publisher implements audit.Emitter on top of a kgo client.
type Publisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New dials the brokers and returns a publisher owning the client.
func New(ctx context.Context, cfg Config, opts ...Option) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(20 * time.Millisecond),
		kgo.RecordDeliveryTimeout(30 * time.Second),
	}
	if cfg.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.DialTimeout > 0 {
		kopts = append(kopts, kgo.DialTimeout(cfg.DialTimeout))
	}
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	return NewWithClient(client, cfg.Topic, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *kgo.Client, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit serializes the event and enqueues it. Records are keyed by poll so a
// poll's events stay ordered within one partition.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.PollID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}

	// The request context ends with the response; delivery must outlive it.
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.metrics.incFailed()
			p.logger.Error("failed to publish audit event",
				"error", err,
				"action", string(event.Action),
				"request_id", event.RequestID,
			)
			return
		}
		p.metrics.incPublished()
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	defer p.client.Close()
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit events: %w", err)
	}
	return nil
}
