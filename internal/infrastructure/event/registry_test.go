package event

import (
	"context"
	"testing"

	"github.com/erp/messaging/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// recorder is a named subscriber; the name makes instances distinct
type recorder struct {
	name  string
	types []string
}

func (r *recorder) Handle(context.Context, shared.DomainEvent) error { return nil }
func (r *recorder) EventTypes() []string                             { return r.types }

func names(hs []shared.EventHandler) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.(*recorder).name)
	}
	return out
}

func TestHandlerRegistry_Routing(t *testing.T) {
	cache := &recorder{name: "thread-cache"}
	stars := &recorder{name: "stars"}
	audit := &recorder{name: "audit"}

	reg := NewHandlerRegistry()
	reg.Register(cache, "MessageCreated", "MessageDeleted")
	reg.Register(stars, "MessageStarToggled")
	reg.Register(audit)

	tests := []struct {
		eventType string
		want      []string
	}{
		{"MessageCreated", []string{"thread-cache", "audit"}},
		{"MessageDeleted", []string{"thread-cache", "audit"}},
		{"MessageStarToggled", []string{"stars", "audit"}},
		{"ChannelCreated", []string{"audit"}},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, names(reg.GetHandlers(tt.eventType)))
		})
	}
}

func TestHandlerRegistry_RegisterIsIdempotent(t *testing.T) {
	cache := &recorder{name: "thread-cache"}
	reg := NewHandlerRegistry()

	reg.Register(cache, "MessageCreated")
	reg.Register(cache, "MessageCreated")
	reg.Register(cache)

	assert.Equal(t, []string{"thread-cache"}, names(reg.GetHandlers("MessageCreated")))
	assert.Equal(t, []string{"thread-cache"}, names(reg.GetHandlers("MessageDeleted")))
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	first := &recorder{name: "first"}
	second := &recorder{name: "second"}
	audit := &recorder{name: "audit"}

	reg := NewHandlerRegistry()
	reg.Register(first, "MessageCreated")
	reg.Register(second, "MessageCreated")
	reg.Register(audit)

	reg.Unregister(first)
	reg.Unregister(audit)
	assert.Equal(t, []string{"second"}, names(reg.GetHandlers("MessageCreated")))

	reg.Unregister(second)
	assert.Empty(t, reg.GetHandlers("MessageCreated"))
	assert.Empty(t, reg.byType)
}

func TestHandlerRegistry_GetHandlersReturnsCopy(t *testing.T) {
	cache := &recorder{name: "thread-cache"}
	reg := NewHandlerRegistry()
	reg.Register(cache, "MessageCreated")

	hs := reg.GetHandlers("MessageCreated")
	hs[0] = &recorder{name: "intruder"}

	assert.Equal(t, []string{"thread-cache"}, names(reg.GetHandlers("MessageCreated")))
}
