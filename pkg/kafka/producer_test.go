package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	cases := map[string]kafka.Compression{
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
		"none":   0,
		"brotli": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseCompression(in), in)
	}
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	require.Error(t, err)

	_, err = NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Compression: "brotli"})
	require.Error(t, err)

	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, HashByKey: true, Compression: "lz4"})
	require.NoError(t, err)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, kafka.Lz4, p.writer.Compression)
	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
	assert.Equal(t, 100, p.writer.BatchSize)
	require.NoError(t, p.Close())
}

func TestEncode(t *testing.T) {
	b, err := encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, err = encode("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	_, err = encode(func() {})
	assert.Error(t, err)
}

func TestProducerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Metrics: reg})
	require.NoError(t, err)
	defer p.Close()

	p.metrics.observe("runs", "snappy", 120, 5*time.Millisecond, nil)
	p.metrics.observe("runs", "snappy", 80, time.Millisecond, errors.New("broker down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.messages.WithLabelValues("runs", "snappy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.messages.WithLabelValues("runs", "snappy", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(p.metrics.bytes.WithLabelValues("runs")))

	bare, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer bare.Close()
	assert.Nil(t, bare.metrics)
	bare.metrics.observe("runs", "snappy", 1, time.Millisecond, nil)
}
