// Package pubsub provides a minimal generic broker for fan-out of events
// to multiple subscribers. Publishing never blocks: a subscriber that has
// fallen behind loses events rather than stalling the publisher.
package pubsub

import "sync"

const defaultBuffer = 64

// Broker fans out values of type T to all current subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Broker[T]) Subscribe() <-chan T {
	ch := make(chan T, defaultBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker[T]) Unsubscribe(ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if (<-chan T)(sub) == ch {
			delete(b.subs, sub)
			close(sub)
			return
		}
	}
}

// Publish delivers v to every subscriber whose buffer has room.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub <- v:
		default:
		}
	}
}

// Close closes all subscriber channels and drops them.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub)
	}
}
