// Package events implements a typed, in-process publish/subscribe bus for
// engine mutations (artifact commits, contract evaluations, sync results).
// internal/observer subscribes to it and relays events to websocket
// clients; internal/notify routes Event values to its channels.
package events

import (
	"sync"
	"time"
)

// subscriberBufferSize bounds each subscriber channel so a burst of
// mutations does not block the publisher.
const subscriberBufferSize = 256

// Event is a single domain occurrence.
type Event struct {
	Type      string
	Payload   interface{}
	Timestamp time.Time
}

// Hub fans out published events to every active subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]bool
	register    chan chan Event
	unregister  chan chan Event
	publish     chan Event
	done        chan struct{}
}

// NewHub creates a Hub. Call Run in a goroutine before Publish is used.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]bool),
		register:    make(chan chan Event),
		unregister:  make(chan chan Event),
		publish:     make(chan Event, subscriberBufferSize),
		done:        make(chan struct{}),
	}
}

// Run is the hub's main loop; it returns when Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub)
			}
			h.mu.Unlock()

		case evt := <-h.publish:
			h.mu.RLock()
			for sub := range h.subscribers {
				select {
				case sub <- evt:
				default:
					// slow subscriber: drop rather than block the publisher
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Stop ends the hub's Run loop.
func (h *Hub) Stop() { close(h.done) }

// Subscribe registers a new listener channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBufferSize)
	h.register <- ch
	return ch
}

// Unsubscribe removes and closes a previously-subscribed channel.
func (h *Hub) Unsubscribe(ch chan Event) { h.unregister <- ch }

// Publish emits an event of the given type to all subscribers.
func (h *Hub) Publish(eventType string, payload interface{}) {
	h.publish <- Event{Type: eventType, Payload: payload, Timestamp: time.Now()}
}

// SubscriberCount reports the number of currently-registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
