package strategy

import (
	"fmt"
	"time"
)

// Position is the single active trade. At most one exists at a time; it is
// created by the entry selector, mutated only by trailing-stop advancement
// and destroyed by an exit signal.
type Position struct {
	Direction  Direction
	EntryType  EntryType
	EntryPrice float64
	EntryTime  time.Time
	EntryBar   int
	Stop       float64
	Target     float64

	// Trailing stop, once activated. trailSet is the explicit "trail is
	// live" tag so the stop-vs-trail_stop exit reason never depends on
	// float equality.
	TrailStop float64
	trailSet  bool
}

// TrailActive reports whether the trailing stop has been set.
func (p *Position) TrailActive() bool { return p.trailSet }

// EffectiveStop returns the binding stop and whether it is the trailing one.
// The trail only binds when it is more favorable than the fixed stop.
func (p *Position) EffectiveStop() (price float64, fromTrail bool) {
	if !p.trailSet {
		return p.Stop, false
	}
	if p.Direction == Long {
		if p.TrailStop > p.Stop {
			return p.TrailStop, true
		}
		return p.Stop, false
	}
	if p.TrailStop < p.Stop {
		return p.TrailStop, true
	}
	return p.Stop, false
}

// updateTrail advances the trailing stop once unrealized profit passes the
// activation threshold. Longs ratchet up off the bar high, shorts ratchet
// down off the bar low; the stop never retreats. Updating never exits on the
// same step.
func (e *Engine) updateTrail(bar Bar) {
	p := e.position
	oldStop, _ := p.EffectiveStop()

	if p.Direction == Long {
		if bar.High-p.EntryPrice >= e.cfg.TrailActivationPts {
			candidate := bar.High - e.cfg.TrailDistancePts
			if !p.trailSet || candidate > p.TrailStop {
				p.TrailStop = candidate
				p.trailSet = true
				e.obs.OnTrailUpdate(oldStop, candidate, bar.High)
			}
		}
		return
	}

	if p.EntryPrice-bar.Low >= e.cfg.TrailActivationPts {
		candidate := bar.Low + e.cfg.TrailDistancePts
		if !p.trailSet || candidate < p.TrailStop {
			p.TrailStop = candidate
			p.trailSet = true
			e.obs.OnTrailUpdate(oldStop, candidate, bar.Low)
		}
	}
}

// checkExit evaluates the open position against the bar. Priority is fixed:
// trail advancement (state only), target, stop, time. Target is checked
// before stop deliberately: a wide bar touching both reports a target exit,
// and backtest/live parity depends on that ordering.
func (e *Engine) checkExit(bar Bar) *Signal {
	p := e.position
	barsHeld := e.barCount - p.EntryBar

	if e.cfg.UseRunner {
		e.updateTrail(bar)
	}

	effStop, fromTrail := p.EffectiveStop()

	if p.Direction == Long {
		if bar.High >= p.Target {
			return e.exit(bar, p.Target, e.cfg.TargetPts, ExitTarget)
		}
		if bar.Low <= effStop {
			reason := ExitStop
			if fromTrail {
				reason = ExitTrailStop
			}
			return e.exit(bar, effStop, effStop-p.EntryPrice, reason)
		}
	} else {
		if bar.Low <= p.Target {
			return e.exit(bar, p.Target, e.cfg.TargetPts, ExitTarget)
		}
		if bar.High >= effStop {
			reason := ExitStop
			if fromTrail {
				reason = ExitTrailStop
			}
			return e.exit(bar, effStop, p.EntryPrice-effStop, reason)
		}
	}

	if barsHeld >= e.cfg.MaxBars {
		pnl := bar.Close - p.EntryPrice
		if p.Direction == Short {
			pnl = p.EntryPrice - bar.Close
		}
		return e.exit(bar, bar.Close, pnl, ExitTime)
	}

	return nil
}

// exit closes the position, updates the session counters and returns the
// exit signal. The position is gone by the time the signal is returned.
func (e *Engine) exit(bar Bar, exitPrice, pnlPts float64, reason ExitReason) *Signal {
	p := e.position

	e.stats.Exits++
	e.stats.TotalPnLPoints += pnlPts
	if pnlPts > 0 {
		e.stats.Wins++
	} else {
		e.stats.Losses++
	}

	sig := &Signal{
		Action:      ActionExit,
		Direction:   p.Direction,
		EntryType:   p.EntryType,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   exitPrice,
		PnLPoints:   pnlPts,
		PnLCurrency: pnlPts * e.cfg.PointValue,
		ExitReason:  reason,
		BarsHeld:    e.barCount - p.EntryBar,
		Reason:      string(reason),
		Timestamp:   bar.Timestamp,
	}

	e.position = nil
	e.obs.OnExit(sig)
	return sig
}

// enter installs a new position and returns the entry signal. Entries fill
// at the bar close; stop and target are fixed offsets from it.
func (e *Engine) enter(bar Bar, direction Direction, entryType EntryType, reason string) *Signal {
	price := bar.Close

	var stop, target float64
	if direction == Long {
		stop = price - e.cfg.StopPts
		target = price + e.cfg.TargetPts
	} else {
		stop = price + e.cfg.StopPts
		target = price - e.cfg.TargetPts
	}

	e.position = &Position{
		Direction:  direction,
		EntryType:  entryType,
		EntryPrice: price,
		EntryTime:  bar.Timestamp,
		EntryBar:   e.barCount,
		Stop:       stop,
		Target:     target,
	}

	e.stats.Signals++
	e.stats.Entries++

	sig := &Signal{
		Action:    ActionEntry,
		Direction: direction,
		EntryType: entryType,
		Price:     price,
		Stop:      stop,
		Target:    target,
		Reason:    reason,
		Timestamp: bar.Timestamp,
	}

	e.obs.OnEntry(sig)
	return sig
}

// UnrealizedPoints returns the open position's unrealized pnl at the given
// price, or zero when flat.
func (e *Engine) UnrealizedPoints(price float64) float64 {
	if e.position == nil {
		return 0
	}
	if e.position.Direction == Long {
		return price - e.position.EntryPrice
	}
	return e.position.EntryPrice - price
}

func (p *Position) String() string {
	stop, _ := p.EffectiveStop()
	return fmt.Sprintf("%s %s @ %.2f stop %.2f target %.2f", p.Direction, p.EntryType, p.EntryPrice, stop, p.Target)
}
