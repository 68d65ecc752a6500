package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate after a state change
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() int64
	AggregateType() string
}

// EventHeader is embedded by concrete events and supplies the
// DomainEvent methods.
type EventHeader struct {
	ID      uuid.UUID `json:"event_id"`
	Type    string    `json:"event_type"`
	At      time.Time `json:"occurred_at"`
	AggType string    `json:"aggregate_type"`
	AggID   int64     `json:"aggregate_id"`
}

// NewEventHeader stamps an event of eventType raised by aggregate aggType/aggID.
// Event ids are time-ordered.
func NewEventHeader(eventType, aggType string, aggID int64) EventHeader {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return EventHeader{ID: id, Type: eventType, At: time.Now(), AggType: aggType, AggID: aggID}
}

func (h *EventHeader) EventID() uuid.UUID    { return h.ID }
func (h *EventHeader) EventType() string     { return h.Type }
func (h *EventHeader) OccurredAt() time.Time { return h.At }
func (h *EventHeader) AggregateID() int64    { return h.AggID }
func (h *EventHeader) AggregateType() string { return h.AggType }

// EventHandler consumes published events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means every type
	EventTypes() []string
}

// EventPublisher is what the application layer publishes through
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
