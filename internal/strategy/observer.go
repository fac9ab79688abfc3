package strategy

// Observer receives everything the engine sees and decides. Implementations
// must not block: the engine runs synchronously on the ingest path.
// The journal writer, the event bus bridge and tests all hang off this.
type Observer interface {
	OnBar(bar Bar, source string)
	OnChannel(high, low float64, period int)
	OnBreak(direction Direction, level, price float64)
	OnTrailUpdate(oldStop, newStop, price float64)
	OnEntry(sig *Signal)
	OnExit(sig *Signal)
	OnPositionState(st Status)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnBar(Bar, string)                  {}
func (NopObserver) OnChannel(float64, float64, int)    {}
func (NopObserver) OnBreak(Direction, float64, float64) {}
func (NopObserver) OnTrailUpdate(float64, float64, float64) {}
func (NopObserver) OnEntry(*Signal)                    {}
func (NopObserver) OnExit(*Signal)                     {}
func (NopObserver) OnPositionState(Status)             {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnBar(b Bar, source string) {
	for _, o := range m {
		o.OnBar(b, source)
	}
}

func (m MultiObserver) OnChannel(high, low float64, period int) {
	for _, o := range m {
		o.OnChannel(high, low, period)
	}
}

func (m MultiObserver) OnBreak(d Direction, level, price float64) {
	for _, o := range m {
		o.OnBreak(d, level, price)
	}
}

func (m MultiObserver) OnTrailUpdate(oldStop, newStop, price float64) {
	for _, o := range m {
		o.OnTrailUpdate(oldStop, newStop, price)
	}
}

func (m MultiObserver) OnEntry(sig *Signal) {
	for _, o := range m {
		o.OnEntry(sig)
	}
}

func (m MultiObserver) OnExit(sig *Signal) {
	for _, o := range m {
		o.OnExit(sig)
	}
}

func (m MultiObserver) OnPositionState(st Status) {
	for _, o := range m {
		o.OnPositionState(st)
	}
}
