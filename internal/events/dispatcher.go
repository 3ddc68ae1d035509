package events

import (
	"context"
	"errors"
	"sync"
)

// Event is any typed business event carried through the dispatcher.
type Event interface {
	EventType() string
}

// HandlerFunc consumes one published event. Handlers run synchronously in the
// publisher's goroutine; a returned error aborts the remaining handler chain
// and is surfaced to the publisher.
type HandlerFunc func(ctx context.Context, event Event) error

// Dispatcher is an in-process publish/subscribe bus. Subscriptions are
// expected to be registered at startup; Publish can be called concurrently.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
	}
}

// Subscribe registers a handler for the supplied event type. Handlers are
// invoked in registration order.
func (d *Dispatcher) Subscribe(eventType string, fn HandlerFunc) {
	if eventType == "" || fn == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], fn)
}

// Publish delivers the event to every handler registered for its type,
// synchronously and in registration order. The first handler error stops the
// chain and is returned to the caller; an event with no subscribers is not an
// error.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return errors.New("events: nil event")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	chain := d.handlers[event.EventType()]
	d.mu.RUnlock()

	for _, fn := range chain {
		if err := fn(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
