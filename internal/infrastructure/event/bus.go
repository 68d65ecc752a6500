package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers events synchronously inside the publishing
// goroutine. When Publish returns every handler has run, so a cache
// invalidated by a handler is already fresh for the caller's next read.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	log      *zap.Logger
	running  atomic.Bool

	published atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus returns a bus with no subscribers. A nil logger
// discards output.
func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{registry: NewHandlerRegistry(), log: log.Named("event_bus")}
}

// Publish hands each event to its handlers in subscription order. Handler
// errors and panics are counted and logged but never returned.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	span := trace.SpanFromContext(ctx)
	for _, ev := range events {
		b.published.Add(1)
		span.AddEvent("domain_event", trace.WithAttributes(
			attribute.String("event.type", ev.EventType()),
			attribute.String("event.aggregate_type", ev.AggregateType()),
			attribute.Int64("event.aggregate_id", ev.AggregateID()),
		))
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			err := deliver(ctx, h, ev)
			if err == nil {
				continue
			}
			b.failed.Add(1)
			b.log.Error("handler failed to process event", append(logger.Fields(ctx),
				zap.String("handler", handlerName(h)),
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Int64("aggregate_id", ev.AggregateID()),
				zap.Error(err),
			)...)
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes()
// when none are given.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.log.Debug("handler subscribed", zap.String("handler", handlerName(handler)), zap.Strings("event_types", eventTypes))
}

// Unsubscribe drops handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.log.Debug("handler unsubscribed", zap.String("handler", handlerName(handler)))
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.log.Info("event bus started")
	return nil
}

// Stop logs the delivery totals. Nothing is ever in flight after Publish
// returns, so there is nothing to drain.
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	published, failed := b.Stats()
	b.log.Info("event bus stopped", zap.Int64("published", published), zap.Int64("handler_failures", failed))
	return nil
}

// Stats reports published events and failed handler deliveries
func (b *InMemoryEventBus) Stats() (published, failed int64) {
	return b.published.Load(), b.failed.Load()
}

func deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

func handlerName(h shared.EventHandler) string {
	return fmt.Sprintf("%T", h)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
