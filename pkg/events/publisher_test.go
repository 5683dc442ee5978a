package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/storage"
)

type sent struct {
	key     string
	headers map[string]string
	value   []byte
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Publish(_ context.Context, key string, headers map[string]string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{key: key, headers: headers, value: value})
	return nil
}

func newTestPublisher(sender Sender) *Publisher {
	return NewPublisher(sender, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestPublishWritesChangeEvent(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPublisher(sender)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	before := testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("customer.created", "ok"))

	err := p.Publish(context.Background(), storage.Change{
		Action:     storage.ActionCreated,
		Entity:     "customer",
		ID:         "cust-1",
		Data:       map[string]any{"name": "Ada"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "cust-1", msg.key)
	assert.Equal(t, "customer.created", msg.headers[HeaderEventType])
	assert.Equal(t, "customer", msg.headers[HeaderEntityType])
	assert.Empty(t, msg.headers[HeaderTraceParent])
	assert.JSONEq(t, `{
		"event_type": "customer.created",
		"entity_type": "customer",
		"entity_id": "cust-1",
		"data": {"name": "Ada"},
		"timestamp": "2024-05-01T12:00:00Z"
	}`, string(msg.value))

	after := testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("customer.created", "ok"))
	assert.Equal(t, before+1, after)
}

func TestPublishDeletedHasNullData(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPublisher(sender)

	require.NoError(t, p.Publish(context.Background(), storage.Change{
		Action: storage.ActionDeleted,
		Entity: "invoice",
		ID:     "inv-9",
	}))

	var event map[string]any
	require.NoError(t, json.Unmarshal(sender.sent[0].value, &event))
	assert.Equal(t, "invoice.deleted", event["event_type"])
	assert.Nil(t, event["data"])
}

func TestPublishReturnsSenderError(t *testing.T) {
	boom := errors.New("no brokers")
	p := newTestPublisher(&fakeSender{err: boom})

	before := testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("lead.updated", "error"))

	err := p.Publish(context.Background(), storage.Change{Action: storage.ActionUpdated, Entity: "lead", ID: "l1"})
	assert.ErrorIs(t, err, boom)

	after := testutil.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues("lead.updated", "error"))
	assert.Equal(t, before+1, after)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "service_job_comment.updated", EventType("service_job_comment", storage.ActionUpdated))
}
