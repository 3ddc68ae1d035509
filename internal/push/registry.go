package push

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/pkg/logger"
	"github.com/jinsuh/supplyhub/pkg/metrics"
)

const channelBuffer = 16

// Event is the payload written to a user's push channel.
type Event struct {
	Event          string               `json:"event"`
	Notification   *models.Notification `json:"notification,omitempty"`
	NotificationID string               `json:"notification_id,omitempty"`
}

// Channel is one user's live push stream. A user holds at most one channel at
// a time; subscribing again replaces the previous one.
type Channel struct {
	userID string
	events chan Event

	mu     sync.Mutex
	closed bool
}

// Events exposes the receive side of the channel.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// send attempts a non-blocking write. It reports false when the channel is
// closed or its buffer is full.
func (c *Channel) send(event Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Registry tracks the live push channel per user. Emit never blocks the
// caller: a slow or dead consumer is dropped rather than stalling the
// dispatch pipeline.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	log      *zap.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		log:      logger.WithModule("push"),
	}
}

// Subscribe registers a fresh channel for the user. Any existing channel for
// the same user is closed and replaced, so reconnects win over stale
// connections.
func (r *Registry) Subscribe(userID string) *Channel {
	ch := &Channel{
		userID: userID,
		events: make(chan Event, channelBuffer),
	}

	r.mu.Lock()
	prev := r.channels[userID]
	r.channels[userID] = ch
	r.mu.Unlock()

	if prev != nil {
		prev.close()
	} else {
		metrics.PushChannels.Inc()
	}

	return ch
}

// Unsubscribe closes and removes the user's channel, but only if it is still
// the one handed out: a replaced channel unsubscribing must not tear down its
// successor.
func (r *Registry) Unsubscribe(userID string, ch *Channel) {
	r.mu.Lock()
	current, ok := r.channels[userID]
	if ok && current == ch {
		delete(r.channels, userID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	ch.close()
	if ok {
		metrics.PushChannels.Dec()
	}
}

// Emit pushes an event to the user's channel if one is connected. An offline
// user is a no-op; a full or closed channel is dropped and removed so the
// next emit sees the user as offline.
func (r *Registry) Emit(userID string, event Event) {
	r.mu.RLock()
	ch, ok := r.channels[userID]
	r.mu.RUnlock()

	if !ok {
		metrics.PushDeliveries.WithLabelValues("offline").Inc()
		return
	}

	if ch.send(event) {
		metrics.PushDeliveries.WithLabelValues("sent").Inc()
		return
	}

	r.mu.Lock()
	if r.channels[userID] == ch {
		delete(r.channels, userID)
		metrics.PushChannels.Dec()
	}
	r.mu.Unlock()
	ch.close()

	metrics.PushDeliveries.WithLabelValues("dropped").Inc()
	r.log.Warn("push channel dropped",
		zap.String("user_id", userID),
		zap.String("event", event.Event))
}

// Connected reports whether the user currently has a live channel.
func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[userID]
	return ok
}

// Len returns the number of live channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
