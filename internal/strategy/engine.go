// Package strategy implements the Donchian failed-test strategy core: channel
// computation, break tracking, entry selection and the single-position
// lifecycle. The engine is synchronous and deterministic, one bar in and at
// most one signal out, so live and backtest runs produce identical signal
// sequences from identical bar sequences. It performs no I/O and provides no
// internal locking; bars must be delivered from a single goroutine.
package strategy

import "fmt"

const (
	// warmupMargin is the extra history required past the channel period
	// before any signal evaluation begins.
	warmupMargin = 5

	// historyRetention caps the rolling bar buffer.
	historyRetention = 200
)

// Stats are the cumulative session counters exposed by Status.
type Stats struct {
	Signals        int     `json:"signals"`
	Entries        int     `json:"entries"`
	Exits          int     `json:"exits"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	TotalPnLPoints float64 `json:"total_pnl_pts"`
}

// Status is a read-only snapshot of the engine.
type Status struct {
	InPosition  bool      `json:"in_position"`
	Direction   Direction `json:"direction,omitempty"`
	EntryType   EntryType `json:"entry_type,omitempty"`
	EntryPrice  float64   `json:"entry_price,omitempty"`
	CurrentStop float64   `json:"current_stop,omitempty"`
	TrailActive bool      `json:"trail_active"`
	BarsLoaded  int       `json:"bars_loaded"`
	Stats       Stats     `json:"stats"`
}

// Engine drives the strategy one bar at a time.
type Engine struct {
	cfg Config
	obs Observer

	bars     *barRing
	barCount int
	position *Position

	// Break state from the last bar that neither entered nor exited. The
	// channel levels are snapshotted at break-observation time: the failed
	// test compares against the level that was broken, not the band as it
	// stands now.
	lastBrokeHigh   bool
	lastBrokeLow    bool
	lastChannelHigh float64
	lastChannelLow  float64

	stats Stats
}

// New constructs an engine. The configuration is validated up front and is
// immutable afterwards; obs may be nil.
func New(cfg Config, obs Observer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	if obs == nil {
		obs = NopObserver{}
	}

	retention := historyRetention
	if min := cfg.ChannelPeriod + warmupMargin; retention < min {
		retention = min
	}

	return &Engine{
		cfg:  cfg,
		obs:  obs,
		bars: newBarRing(retention),
	}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config { return e.cfg }

// Ingest processes one bar and returns at most one signal. Per-bar order is
// fixed: exit check, entry check, break-state refresh. A bar that produces a
// signal does not also refresh break state, so a failed-test setup is never
// consumed and re-armed by the same bar.
func (e *Engine) Ingest(bar Bar, source string) (*Signal, error) {
	if err := bar.Validate(); err != nil {
		return nil, err
	}

	e.bars.push(bar)
	e.barCount++
	e.obs.OnBar(bar, source)

	if e.bars.len() < e.cfg.ChannelPeriod+warmupMargin {
		return nil, nil
	}

	chHigh, chLow := e.channel()
	e.obs.OnChannel(chHigh, chLow, e.cfg.ChannelPeriod)

	if e.position != nil {
		if sig := e.checkExit(bar); sig != nil {
			return sig, nil
		}
	}

	if e.position == nil {
		if sig := e.checkEntries(bar, chHigh, chLow); sig != nil {
			return sig, nil
		}
	}

	e.updateBreakState(bar, chHigh, chLow)

	if e.position != nil {
		e.obs.OnPositionState(e.Status())
	}

	return nil, nil
}

// updateBreakState records whether this bar pierced the channel by more than
// the tolerance, for the entry selector to consult on the next bar. Rising
// edges are reported; the channel levels are snapshotted alongside the flags.
func (e *Engine) updateBreakState(bar Bar, chHigh, chLow float64) {
	tol := e.cfg.TouchTolerancePts
	newBrokeHigh := bar.High > chHigh+tol
	newBrokeLow := bar.Low < chLow-tol

	if newBrokeHigh && !e.lastBrokeHigh {
		e.obs.OnBreak(Long, chHigh, bar.High)
	}
	if newBrokeLow && !e.lastBrokeLow {
		e.obs.OnBreak(Short, chLow, bar.Low)
	}

	e.lastBrokeHigh = newBrokeHigh
	e.lastBrokeLow = newBrokeLow
	e.lastChannelHigh = chHigh
	e.lastChannelLow = chLow
}

// Status returns a read-only snapshot with no side effects.
func (e *Engine) Status() Status {
	st := Status{
		BarsLoaded: e.bars.len(),
		Stats:      e.stats,
	}
	if e.position != nil {
		stop, _ := e.position.EffectiveStop()
		st.InPosition = true
		st.Direction = e.position.Direction
		st.EntryType = e.position.EntryType
		st.EntryPrice = e.position.EntryPrice
		st.CurrentStop = stop
		st.TrailActive = e.position.TrailActive()
	}
	return st
}
