// Package notify dispatches engine events (internal/events) to desktop
// toast and external webhook channels via a pluggable Channel interface.
package notify

import (
	"log"
	"sync"

	"github.com/awp-dev/awpengine/internal/events"
)

// Channel is a destination that may choose to act on an event.
type Channel interface {
	Name() string
	ShouldNotify(evt events.Event) bool
	Send(evt events.Event) error
}

// Router fans an event out to every channel that wants it, fire-and-forget.
type Router struct {
	mu       sync.RWMutex
	channels []Channel
}

// NewRouter creates a Router over the given channels (may be empty).
func NewRouter(channels []Channel) *Router {
	if channels == nil {
		channels = []Channel{}
	}
	return &Router{channels: channels}
}

// AddChannel registers an additional channel.
func (r *Router) AddChannel(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, ch)
}

// RemoveChannel drops the channel with the given name, if present.
func (r *Router) RemoveChannel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	filtered := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		if ch.Name() != name {
			filtered = append(filtered, ch)
		}
	}
	r.channels = filtered
}

// Route dispatches evt to every matching channel in its own goroutine and
// logs (rather than returns) per-channel failures.
func (r *Router) Route(evt events.Event) {
	r.mu.RLock()
	channels := make([]Channel, len(r.channels))
	copy(channels, r.channels)
	r.mu.RUnlock()

	for _, ch := range channels {
		go func(channel Channel) {
			if !channel.ShouldNotify(evt) {
				return
			}
			if err := channel.Send(evt); err != nil {
				log.Printf("[notify] channel %s failed for event %s: %v", channel.Name(), evt.Type, err)
			}
		}(ch)
	}
}

// RouteWithWait is Route but blocks until every channel has finished,
// useful for tests and CLI dry-runs.
func (r *Router) RouteWithWait(evt events.Event) {
	r.mu.RLock()
	channels := make([]Channel, len(r.channels))
	copy(channels, r.channels)
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(channel Channel) {
			defer wg.Done()
			if !channel.ShouldNotify(evt) {
				return
			}
			if err := channel.Send(evt); err != nil {
				log.Printf("[notify] channel %s failed for event %s: %v", channel.Name(), evt.Type, err)
			}
		}(ch)
	}
	wg.Wait()
}

// ChannelNames returns the names of every registered channel.
func (r *Router) ChannelNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.channels))
	for i, ch := range r.channels {
		names[i] = ch.Name()
	}
	return names
}
