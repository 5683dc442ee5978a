package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{Messages: int64(len(w.messages))}
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	cfg := DefaultProducerConfig()
	cfg.Brokers = nil
	_, err := NewProducer(cfg, testLogger())
	assert.Error(t, err)

	cfg = DefaultProducerConfig()
	cfg.Topic = ""
	_, err = NewProducer(cfg, testLogger())
	assert.Error(t, err)

	p, err := NewProducer(DefaultProducerConfig(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "clover-changes", p.Topic())
}

func TestPublish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, DefaultProducerConfig(), testLogger())

	err := p.Publish(context.Background(), "cust-1", map[string]string{
		"event_type":  "customer.created",
		"traceparent": "",
	}, []byte(`{"ok":true}`))
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "cust-1", string(msg.Key))
	assert.JSONEq(t, `{"ok":true}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "customer.created", string(msg.Headers[0].Value))
	assert.Equal(t, int64(1), p.Stats().Messages)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, DefaultProducerConfig(), testLogger())

	err := p.Publish(context.Background(), "k", nil, []byte("{}"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Snappy, compressionCodec("SNAPPY"))
	assert.Equal(t, kafka.Lz4, compressionCodec("lz4"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
}

func TestPingFailsWithoutReachableBroker(t *testing.T) {
	producer := NewProducerWithWriter(&recordingWriter{}, ProducerConfig{}, testLogger())
	assert.Error(t, producer.Ping(context.Background()))

	producer = NewProducerWithWriter(&recordingWriter{}, ProducerConfig{Brokers: []string{"127.0.0.1:1"}}, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := producer.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka broker reachable")
}
