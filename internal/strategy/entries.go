package strategy

import "fmt"

// checkEntries evaluates the enabled entry modes in fixed priority order and
// returns the first match: failed test, then bounce, then breakout. Modes are
// mutually exclusive per bar.
func (e *Engine) checkEntries(bar Bar, chHigh, chLow float64) *Signal {
	tol := e.cfg.TouchTolerancePts
	brk := e.cfg.BreakoutMinPts

	// Failed test: the previous bar pierced the channel, this one closed
	// back inside. Fade the trap. Comparison is against the channel level
	// recorded at break time, not the freshly recomputed band.
	if e.cfg.EnableFailedTest {
		if e.lastBrokeHigh && bar.Close < e.lastChannelHigh {
			reason := fmt.Sprintf("failed test: broke %.2f, reclaimed below", e.lastChannelHigh)
			return e.enter(bar, Short, EntryFailedTest, reason)
		}
		if e.lastBrokeLow && bar.Close > e.lastChannelLow {
			reason := fmt.Sprintf("failed test: broke %.2f, reclaimed above", e.lastChannelLow)
			return e.enter(bar, Long, EntryFailedTest, reason)
		}
	}

	// Bounce: touch within tolerance of the band and close rejecting back
	// off it.
	if e.cfg.EnableBounce {
		if chHigh-tol <= bar.High && bar.High <= chHigh+tol && bar.Close < chHigh-tol {
			reason := fmt.Sprintf("bounce reject at %.2f", chHigh)
			return e.enter(bar, Short, EntryBounce, reason)
		}
		if chLow-tol <= bar.Low && bar.Low <= chLow+tol && bar.Close > chLow+tol {
			reason := fmt.Sprintf("bounce reject at %.2f", chLow)
			return e.enter(bar, Long, EntryBounce, reason)
		}
	}

	// Breakout: close clears the band by the minimum margin.
	if e.cfg.EnableBreakout {
		if bar.Close > chHigh+brk {
			reason := fmt.Sprintf("breakout above %.2f", chHigh)
			return e.enter(bar, Long, EntryBreakout, reason)
		}
		if bar.Close < chLow-brk {
			reason := fmt.Sprintf("breakout below %.2f", chLow)
			return e.enter(bar, Short, EntryBreakout, reason)
		}
	}

	return nil
}
