package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber queue length used when Subscribe is
// given a non-positive size.
const DefaultBuffer = 256

// Bus fans events out to subscribers. Emit never blocks: a subscriber whose
// queue is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64

	dropped atomic.Uint64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a new queue of the given size. The returned cancel
// function unregisters it and closes the channel; it is idempotent.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Emit delivers ev to every subscriber with room in its queue
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			n := b.dropped.Add(1)
			slog.Debug("[event] subscriber queue full, event dropped", "kind", ev.Kind, "dropped", n)
		}
	}
}

// Subscribers returns the number of registered subscribers
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a queue was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
