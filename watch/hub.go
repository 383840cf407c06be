// Package watch fans out point-in-time snapshots to any number of readers.
package watch

import "sync"

// Hub broadcasts values of T to subscribers. Each subscriber channel holds at most
// one pending value; a newer publish replaces an unread older one, so a slow reader
// only ever sees the latest state and never blocks the publisher.
type Hub[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
	last   T
	has    bool
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T)}
}

// Publish records v as the latest value and delivers it to every subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last, h.has = v, true
	for _, ch := range h.subs {
		deliver(ch, v)
	}
}

// Subscribe returns a channel that receives published values and a cancel func
// that closes it. A new subscriber immediately gets the latest value, if any.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan T, 1)
	h.subs[id] = ch
	if h.has {
		ch <- h.last
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports how many subscriptions are open.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// deliver must be called with h.mu held.
func deliver[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		// drop the stale pending value and retry
		select {
		case <-ch:
		default:
		}
	}
}
