package event

import (
	"slices"
	"sync"

	"github.com/erp/messaging/internal/domain/shared"
)

// HandlerRegistry routes event types to subscribers. A handler registered
// without types hears every event. Handlers keep registration order and
// appear at most once per type.
type HandlerRegistry struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
	all    []shared.EventHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byType: map[string][]shared.EventHandler{}}
}

func (r *HandlerRegistry) Register(h shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(eventTypes) == 0 {
		r.all = addOnce(r.all, h)
		return
	}
	for _, t := range eventTypes {
		r.byType[t] = addOnce(r.byType[t], h)
	}
}

// Unregister drops h everywhere it was registered
func (r *HandlerRegistry) Unregister(h shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	same := func(x shared.EventHandler) bool { return x == h }
	r.all = slices.DeleteFunc(r.all, same)
	for t, hs := range r.byType {
		if hs = slices.DeleteFunc(hs, same); len(hs) > 0 {
			r.byType[t] = hs
		} else {
			delete(r.byType, t)
		}
	}
}

// GetHandlers lists the handlers for eventType, then the catch-all ones
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.byType[eventType])
	for _, h := range r.all {
		out = addOnce(out, h)
	}
	return out
}

func addOnce(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	if slices.Contains(hs, h) {
		return hs
	}
	return append(hs, h)
}
