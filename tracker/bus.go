package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/todoledger/sdk-go/tracker/event"
)

// Bus fans lifecycle events out to subscribers. The zero value is not usable;
// call NewBus.
type Bus struct {
	mu   sync.RWMutex
	subs map[event.EventType][]event.Handler
	all  []event.Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[event.EventType][]event.Handler)}
}

// Subscribe registers handler for one event type.
func (b *Bus) Subscribe(t event.EventType, handler event.Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], handler)
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler event.Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Emit delivers e synchronously, typed subscribers first. A nil bus drops events.
func (b *Bus) Emit(ctx context.Context, e event.Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := append([]event.Handler{}, b.subs[e.Type]...)
	all := append([]event.Handler{}, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	for _, h := range all {
		h(ctx, e)
	}
}
