package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func createdEvent(id int64) shared.DomainEvent {
	msg := mail.NewMessage("hello", "")
	msg.ID = id
	msg.AttachTo(mail.DocumentRef{Model: mail.ChannelModel, ResID: 1})
	return mail.NewMessageCreatedEvent(msg)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler(mail.EventTypeMessageCreated)
	bus.Subscribe(handler)

	event := createdEvent(1)
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEventsAndHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler1 := newTestHandler()
	handler2 := newTestHandler()
	bus.Subscribe(handler1, mail.EventTypeMessageCreated)
	bus.Subscribe(handler2, mail.EventTypeMessageCreated)

	require.NoError(t, bus.Publish(context.Background(), createdEvent(1), createdEvent(2)))

	assert.Len(t, handler1.getHandled(), 2)
	assert.Len(t, handler2.getHandled(), 2)
	published, failed := bus.Stats()
	assert.Equal(t, int64(2), published)
	assert.Zero(t, failed)
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), createdEvent(1)))
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_FailingHandlersDoNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler(mail.EventTypeMessageCreated)
	failing.err = errors.New("handler error")
	panicking := newTestHandler(mail.EventTypeMessageCreated)
	panicking.panicWith = "boom"
	healthy := newTestHandler(mail.EventTypeMessageCreated)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), createdEvent(1)))

	assert.Len(t, healthy.getHandled(), 1)
	_, failed := bus.Stats()
	assert.Equal(t, int64(2), failed)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handler := newTestHandler(mail.EventTypeMessageCreated)
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), createdEvent(1))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), createdEvent(2))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.running.Load())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.running.Load())
}
