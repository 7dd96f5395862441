package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe event bus with namespace filtering.
// Slow subscribers never block publishers: events are dropped when a
// subscriber's buffer is full.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	namespace string
	ch        chan Event
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
	}
}

// Publish sends an event to all subscribers whose namespace is a prefix of
// event.Kind. Returns the number of subscribers that received the event.
func (b *Bus) Publish(evt Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.namespace) {
			continue
		}
		select {
		case sub.ch <- evt:
			delivered++
		default:
			// Subscriber buffer full, event dropped.
		}
	}
	return delivered
}

// Subscribe returns a channel that receives events matching the given
// namespace prefix. bufSize controls the channel buffer. Returns the channel
// and an unsubscribe function.
func (b *Bus) Subscribe(namespace string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{namespace: namespace, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
