// Package events provides the in-process pub/sub bus that decouples the
// strategy engine from the API, journal and cache layers.
package events

import (
	"sync"
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// EventType identifies a bus event.
type EventType string

const (
	EventBarReceived    EventType = "BAR_RECEIVED"
	EventChannelUpdated EventType = "CHANNEL_UPDATED"
	EventBreakDetected  EventType = "BREAK_DETECTED"
	EventTrailUpdated   EventType = "TRAIL_UPDATED"
	EventEntry          EventType = "ENTRY"
	EventExit           EventType = "EXIT"
	EventPositionUpdate EventType = "POSITION_UPDATE"
	EventTraderStarted  EventType = "TRADER_STARTED"
	EventTraderStopped  EventType = "TRADER_STOPPED"
	EventError          EventType = "ERROR"
)

// Event is a bus message.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber handles events. Handlers run on their own goroutine per event;
// they must tolerate out-of-order delivery relative to other subscribers.
type Subscriber func(Event)

// Bus manages event publishing and subscriptions.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for one event type.
func (b *Bus) Subscribe(t EventType, s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], s)
}

// SubscribeAll registers a subscriber for every event.
func (b *Bus) SubscribeAll(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, s)
}

// Publish sends an event to all matching subscribers without blocking the
// publisher.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, s := range b.subscribers[event.Type] {
		go s(event)
	}
	for _, s := range b.allSubs {
		go s(event)
	}
}

// PublishSignal publishes an entry or exit signal.
func (b *Bus) PublishSignal(sig *strategy.Signal) {
	t := EventEntry
	data := map[string]interface{}{
		"direction":  sig.Direction,
		"entry_type": sig.EntryType,
		"reason":     sig.Reason,
		"timestamp":  sig.Timestamp,
	}
	if sig.Action == strategy.ActionExit {
		t = EventExit
		data["entry_price"] = sig.EntryPrice
		data["exit_price"] = sig.ExitPrice
		data["pnl_pts"] = sig.PnLPoints
		data["pnl_currency"] = sig.PnLCurrency
		data["bars_held"] = sig.BarsHeld
	} else {
		data["price"] = sig.Price
		data["stop"] = sig.Stop
		data["target"] = sig.Target
	}
	b.Publish(Event{Type: t, Data: data})
}

// PublishError publishes an error event.
func (b *Bus) PublishError(source, message string, err error) {
	data := map[string]interface{}{"source": source, "message": message}
	if err != nil {
		data["error"] = err.Error()
	}
	b.Publish(Event{Type: EventError, Data: data})
}

// Observer bridges the strategy engine onto the bus so the engine stays free
// of any bus dependency.
type Observer struct {
	strategy.NopObserver
	bus *Bus
}

// NewObserver wraps a bus as a strategy observer.
func NewObserver(bus *Bus) *Observer {
	return &Observer{bus: bus}
}

func (o *Observer) OnBar(bar strategy.Bar, source string) {
	o.bus.Publish(Event{Type: EventBarReceived, Data: map[string]interface{}{
		"time":   bar.Timestamp,
		"open":   bar.Open,
		"high":   bar.High,
		"low":    bar.Low,
		"close":  bar.Close,
		"volume": bar.Volume,
		"source": source,
	}})
}

func (o *Observer) OnChannel(high, low float64, period int) {
	o.bus.Publish(Event{Type: EventChannelUpdated, Data: map[string]interface{}{
		"high":   high,
		"low":    low,
		"period": period,
	}})
}

func (o *Observer) OnBreak(direction strategy.Direction, level, price float64) {
	o.bus.Publish(Event{Type: EventBreakDetected, Data: map[string]interface{}{
		"direction": direction,
		"level":     level,
		"price":     price,
	}})
}

func (o *Observer) OnTrailUpdate(oldStop, newStop, price float64) {
	o.bus.Publish(Event{Type: EventTrailUpdated, Data: map[string]interface{}{
		"old_stop": oldStop,
		"new_stop": newStop,
		"price":    price,
	}})
}

func (o *Observer) OnEntry(sig *strategy.Signal) { o.bus.PublishSignal(sig) }
func (o *Observer) OnExit(sig *strategy.Signal)  { o.bus.PublishSignal(sig) }

func (o *Observer) OnPositionState(st strategy.Status) {
	o.bus.Publish(Event{Type: EventPositionUpdate, Data: map[string]interface{}{
		"in_position":  st.InPosition,
		"direction":    st.Direction,
		"entry_price":  st.EntryPrice,
		"current_stop": st.CurrentStop,
		"trail_active": st.TrailActive,
	}})
}
