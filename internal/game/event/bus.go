package event

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Subscription routes a player's events to a buffered channel, bridging the
// core to a streaming transport.
type Subscription struct {
	player string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// newSubscription creates a Subscription with the given buffer size.
//
// Precondition: player must be non-empty.
func newSubscription(player string, bufferSize int) *Subscription {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Subscription{player: player, events: make(chan Event, bufferSize)}
}

// Player returns the subscribed player id.
func (s *Subscription) Player() string { return s.player }

// push enqueues ev without blocking.
//
// Postcondition: returns an error if the subscription is closed or full.
func (s *Subscription) push(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("subscription %s is closed", s.player)
	}
	select {
	case s.events <- ev:
		return nil
	default:
		return fmt.Errorf("subscription %s event buffer full", s.player)
	}
}

// Events returns the read-only events channel. It is closed on Unsubscribe.
func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Bus delivers events to per-player subscriptions. All methods are safe for
// concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *zap.Logger
}

// NewBus creates an empty Bus. Subscriptions get bufferSize slots.
//
// Precondition: logger must be non-nil.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	return &Bus{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: bufferSize,
		logger: logger,
	}
}

// Subscribe registers a new subscription for player.
func (b *Bus) Subscribe(player string) *Subscription {
	s := newSubscription(player, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[player]
	if set == nil {
		set = make(map[*Subscription]struct{})
		b.subs[player] = set
	}
	set[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its channel. Calling it twice is a no-op.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	if set, ok := b.subs[s.player]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.player)
		}
	}
	b.mu.Unlock()
	s.close()
}

// Subscribers returns the number of live subscriptions for player.
func (b *Bus) Subscribers(player string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[player])
}

// Publish delivers ev to every subscription of ev.Player. A slow consumer
// loses the event rather than blocking the session.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[ev.Player] {
		if err := s.push(ev); err != nil {
			b.logger.Warn("dropping event",
				zap.String("player", ev.Player),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}
