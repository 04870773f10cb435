package engine

import (
	"sort"
	"sync"
	"time"
)

// SubscriberID uniquely identifies an EventBus subscriber.
type SubscriberID uint64

// SubscriberFunc is a callback invoked when an event is emitted.
type SubscriberFunc func(Event)

type subscription struct {
	fn     SubscriberFunc
	filter map[EventType]struct{}
}

// EventBus provides synchronous, typed event dispatch. Subscribers run on
// the emitting goroutine in subscription order, and the bus is unlocked
// during dispatch so handlers may emit or unsubscribe.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[SubscriberID]subscription
	nextID SubscriberID
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[SubscriberID]subscription)}
}

// Subscribe registers a callback for all event types.
func (eb *EventBus) Subscribe(fn SubscriberFunc) SubscriberID {
	return eb.add(subscription{fn: fn})
}

// SubscribeTypes registers a callback only for the given event types.
func (eb *EventBus) SubscribeTypes(fn SubscriberFunc, types ...EventType) SubscriberID {
	filter := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return eb.add(subscription{fn: fn, filter: filter})
}

func (eb *EventBus) add(sub subscription) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	eb.subs[eb.nextID] = sub
	return eb.nextID
}

// Unsubscribe removes a subscriber by ID.
func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.subs, id)
}

// Publish wraps a payload in an Event and emits it.
func (eb *EventBus) Publish(t EventType, payload any) {
	eb.Emit(Event{Type: t, Payload: payload})
}

// Emit dispatches an event synchronously to all matching subscribers.
func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	eb.mu.RLock()
	ids := make([]SubscriberID, 0, len(eb.subs))
	for id := range eb.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	snapshot := make([]subscription, len(ids))
	for i, id := range ids {
		snapshot[i] = eb.subs[id]
	}
	eb.mu.RUnlock()

	for _, s := range snapshot {
		if s.filter != nil {
			if _, ok := s.filter[evt.Type]; !ok {
				continue
			}
		}
		s.fn(evt)
	}
}
