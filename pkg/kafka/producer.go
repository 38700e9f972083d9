package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Producer publishes JSON events through a batching Kafka writer.
type Producer struct {
	writer  *kafka.Writer
	comp    string
	metrics *producerMetrics
}

// NewProducer creates a producer for the given brokers. No connection is made
// until the first write.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}
	p := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  parseCompression(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.BatchTimeout,
		},
		comp: cfg.Compression,
	}
	if cfg.Metrics != nil {
		p.metrics = newProducerMetrics(cfg.Metrics)
	}
	return p, nil
}

// Publish writes one message and blocks until the writer acknowledges it.
// Values other than []byte and string are JSON encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value any) error {
	start := time.Now()
	payload, err := encode(value)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: payload, Time: start})
	p.metrics.observe(topic, p.comp, len(payload), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(value any) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

// parseCompression maps a codec name to kafka-go; "none" and unknown names
// disable compression.
func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return 0
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	factory := promauto.With(reg)
	return &producerMetrics{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salescast_kafka_events_total",
			Help: "Run events published to Kafka by result",
		}, []string{"topic", "compression", "result"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salescast_kafka_event_bytes_total",
			Help: "Uncompressed payload bytes of published run events",
		}, []string{"topic"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salescast_kafka_publish_seconds",
			Help:    "Time until the writer acknowledged an event",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"topic"}),
	}
}

// observe is a no-op on a nil receiver so producers built without a registry skip metrics.
func (m *producerMetrics) observe(topic, comp string, size int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Inc()
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(size))
	}
}
