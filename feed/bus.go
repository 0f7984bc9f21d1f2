package feed

import "sync"

const subscriptionBuffer = 32

// Bus is the in-process change feed. Every write path publishes the updated
// record here after persistence; views (including the writer's own) observe
// state exclusively through their subscription, so a write is not trusted
// until the feed re-delivers it.
//
// Events for one tournament reach each subscriber in publish order. A
// subscriber that stops draining its channel loses events rather than
// blocking the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]bool
}

// Subscription delivers matching events on C until Close is called.
type Subscription struct {
	C chan Event

	bus *Bus
	// tournamentID filters deliveries; empty subscribes to every tournament.
	tournamentID string
	once         sync.Once
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]bool)}
}

// Subscribe registers for events of one tournament.
func (b *Bus) Subscribe(tournamentID string) *Subscription {
	return b.subscribe(tournamentID)
}

// SubscribeAll registers for events of every tournament; used by the
// websocket bridge and the list view.
func (b *Bus) SubscribeAll() *Subscription {
	return b.subscribe("")
}

func (b *Bus) subscribe(tournamentID string) *Subscription {
	sub := &Subscription{
		C:            make(chan Event, subscriptionBuffer),
		bus:          b,
		tournamentID: tournamentID,
	}
	b.mu.Lock()
	b.subs[sub] = true
	b.mu.Unlock()
	return sub
}

// Publish delivers the event to every matching subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.tournamentID != "" && sub.tournamentID != ev.TournamentID {
			continue
		}
		select {
		case sub.C <- ev:
		default:
			// Subscriber is not draining; dropping beats stalling the
			// write path.
		}
	}
}

// Close tears the subscription down. Must be called when the owning view
// goes away; safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.C)
	})
}
