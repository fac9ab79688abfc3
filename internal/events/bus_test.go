package events

import (
	"testing"
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeFiltersTypes(t *testing.T) {
	bus := NewBus()
	entries := make(chan Event, 8)
	bus.Subscribe(EventEntry, func(ev Event) { entries <- ev })

	bus.Publish(Event{Type: EventBarReceived})
	bus.Publish(Event{Type: EventEntry, Data: map[string]interface{}{"price": 4505.0}})

	ev := waitEvent(t, entries)
	if ev.Type != EventEntry {
		t.Errorf("event type = %s, want ENTRY", ev.Type)
	}
	if ev.Timestamp.IsZero() {
		t.Error("publish should stamp the event")
	}

	select {
	case ev := <-entries:
		t.Errorf("unexpected extra event: %s", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := NewBus()
	all := make(chan Event, 8)
	bus.SubscribeAll(func(ev Event) { all <- ev })

	bus.Publish(Event{Type: EventBarReceived})
	bus.Publish(Event{Type: EventExit})

	seen := map[EventType]bool{}
	seen[waitEvent(t, all).Type] = true
	seen[waitEvent(t, all).Type] = true
	if !seen[EventBarReceived] || !seen[EventExit] {
		t.Errorf("seen = %v", seen)
	}
}

func TestPublishSignalMapsAction(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 2)
	bus.SubscribeAll(func(ev Event) { got <- ev })

	bus.PublishSignal(&strategy.Signal{
		Action:    strategy.ActionEntry,
		Direction: strategy.Short,
		EntryType: strategy.EntryFailedTest,
		Price:     4505,
		Stop:      4509,
		Target:    4501,
	})
	ev := waitEvent(t, got)
	if ev.Type != EventEntry {
		t.Errorf("entry signal published as %s", ev.Type)
	}
	if ev.Data["price"] != 4505.0 {
		t.Errorf("price = %v", ev.Data["price"])
	}

	bus.PublishSignal(&strategy.Signal{
		Action:     strategy.ActionExit,
		Direction:  strategy.Short,
		ExitReason: strategy.ExitTarget,
		PnLPoints:  4,
	})
	ev = waitEvent(t, got)
	if ev.Type != EventExit {
		t.Errorf("exit signal published as %s", ev.Type)
	}
	if ev.Data["pnl_pts"] != 4.0 {
		t.Errorf("pnl = %v", ev.Data["pnl_pts"])
	}
}

func TestObserverBridgesEngineEvents(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 8)
	bus.Subscribe(EventBreakDetected, func(ev Event) { got <- ev })

	obs := NewObserver(bus)
	obs.OnBreak(strategy.Short, 4510, 4512)

	ev := waitEvent(t, got)
	if ev.Data["level"] != 4510.0 || ev.Data["price"] != 4512.0 {
		t.Errorf("break data = %v", ev.Data)
	}
}
