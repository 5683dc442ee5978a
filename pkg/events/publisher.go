// Package events turns storage changes into Kafka messages.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	HeaderEventType   = "event_type"
	HeaderEntityType  = "entity_type"
	HeaderTraceParent = "traceparent"
	HeaderTraceState  = "tracestate"
)

// ChangeEvent is the message body written for every mutation.
type ChangeEvent struct {
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeEvent builds the event for change.
func NewChangeEvent(change storage.Change) ChangeEvent {
	return ChangeEvent{
		EventType:  EventType(change.Entity, change.Action),
		EntityType: change.Entity,
		EntityID:   change.ID,
		Data:       change.Data,
		Timestamp:  change.OccurredAt.UTC(),
	}
}

// EventType names an event as "<entity>.<action>".
func EventType(entity string, action storage.Action) string {
	return fmt.Sprintf("%s.%s", entity, action)
}

// Sender writes one keyed message. *kafka.Producer satisfies it.
type Sender interface {
	Publish(ctx context.Context, key string, headers map[string]string, value []byte) error
}

// Publisher implements storage.Publisher on top of a Sender.
type Publisher struct {
	sender Sender
	logger ectologger.Logger
}

func NewPublisher(sender Sender, logger ectologger.Logger) *Publisher {
	return &Publisher{sender: sender, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, change storage.Change) error {
	event := NewChangeEvent(change)

	body, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "error").Inc()
		return fmt.Errorf("failed to encode %s event: %w", event.EventType, err)
	}

	headers := map[string]string{
		HeaderEventType:   event.EventType,
		HeaderEntityType:  event.EntityType,
		HeaderTraceParent: tracing.GetTraceParent(ctx),
		HeaderTraceState:  tracing.GetTraceState(ctx),
	}

	if err := p.sender.Publish(ctx, event.EntityID, headers, body); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "error").Inc()
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "ok").Inc()
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"entity_id":  event.EntityID,
	}).Debug("Published change event")
	return nil
}
