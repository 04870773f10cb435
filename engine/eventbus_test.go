package engine

import "testing"

func TestSubscribeReceivesAll(t *testing.T) {
	bus := NewEventBus()

	var got []EventType
	bus.Subscribe(func(evt Event) {
		got = append(got, evt.Type)
	})

	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{CheckUpID: 1})
	bus.Publish(EventItemStatusChanged, ItemStatusChangedEvent{CheckUpID: 1})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0] != EventCheckUpCreated || got[1] != EventItemStatusChanged {
		t.Errorf("events = %v, want created then item change", got)
	}
}

func TestSubscribeTypesFilters(t *testing.T) {
	bus := NewEventBus()

	var got []EventType
	bus.SubscribeTypes(func(evt Event) {
		got = append(got, evt.Type)
	}, EventExportCompleted, EventExportFailed)

	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{})
	bus.Publish(EventExportCompleted, ExportCompletedEvent{RecordID: 7})
	bus.Publish(EventStatsUpdated, StatsUpdatedEvent{})
	bus.Publish(EventExportFailed, ExportFailedEvent{RecordID: 7})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0] != EventExportCompleted || got[1] != EventExportFailed {
		t.Errorf("events = %v, want export completed then failed", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	count := 0
	id := bus.Subscribe(func(Event) { count++ })

	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{})
	bus.Unsubscribe(id)
	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestDispatchInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()

	var order []int
	bus.Subscribe(func(Event) { order = append(order, 1) })
	bus.Subscribe(func(Event) { order = append(order, 2) })
	bus.Subscribe(func(Event) { order = append(order, 3) })

	bus.Publish(EventStatsUpdated, StatsUpdatedEvent{})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestHandlerMayEmit(t *testing.T) {
	bus := NewEventBus()

	var statsSeen bool
	bus.SubscribeTypes(func(evt Event) {
		// Re-entrant publish must not deadlock
		bus.Publish(EventStatsUpdated, StatsUpdatedEvent{CheckUpID: 1})
	}, EventItemStatusChanged)
	bus.SubscribeTypes(func(evt Event) {
		statsSeen = true
	}, EventStatsUpdated)

	bus.Publish(EventItemStatusChanged, ItemStatusChangedEvent{CheckUpID: 1})

	if !statsSeen {
		t.Error("chained event was not delivered")
	}
}

func TestHandlerMayUnsubscribeItself(t *testing.T) {
	bus := NewEventBus()

	count := 0
	var id SubscriberID
	id = bus.Subscribe(func(Event) {
		count++
		bus.Unsubscribe(id)
	})

	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{})
	bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{})

	if count != 1 {
		t.Errorf("count = %d, want 1 (one-shot subscriber)", count)
	}
}

func TestEmitStampsTimestamp(t *testing.T) {
	bus := NewEventBus()

	var stamped bool
	bus.Subscribe(func(evt Event) {
		stamped = !evt.Timestamp.IsZero()
	})
	bus.Emit(Event{Type: EventCheckUpCreated})

	if !stamped {
		t.Error("Timestamp should be set when zero")
	}
}
