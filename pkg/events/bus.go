package events

import (
	"sync"

	"github.com/google/uuid"
)

// Bus fans engine events out to subscribers. Delivery is non-blocking:
// a subscriber whose buffer is full misses the event rather than
// stalling the validation pass that produced it.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
	closed     bool
}

// Subscription receives events matching its type filter.
type Subscription struct {
	id     string
	ch     chan Event
	types  map[Type]struct{}
	bus    *Bus
	closed bool
	mu     sync.Mutex
}

// Events returns the receive channel. It is closed when the
// subscription or the bus is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close removes the subscription from the bus.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

func (s *Subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

func (s *Subscription) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// NewBus creates a bus whose subscribers each buffer bufferSize events.
// A minimum buffer of 1 is enforced to keep delivery non-blocking.
func NewBus(bufferSize int) *Bus {
	return &Bus{
		subs:       make(map[string]*Subscription),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a subscriber. With no types given, every event is
// delivered; otherwise only the listed types are.
func (b *Bus) Subscribe(types ...Type) *Subscription {
	sub := &Subscription{
		id:  uuid.NewString(),
		ch:  make(chan Event, b.bufferSize),
		bus: b,
	}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.close()
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish assigns the event an ID and delivers it to matching
// subscribers without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.wants(ev.Type) {
			sub.send(ev)
		}
	}
}

// Close shuts the bus down and closes every subscription. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.close()
	}
	clear(b.subs)
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()
	sub.close()
}
