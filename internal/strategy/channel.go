package strategy

// channel computes the rolling high/low band over the period bars immediately
// preceding the newest bar. The newest bar is excluded so the band never
// incorporates the bar being evaluated.
func (e *Engine) channel() (high, low float64) {
	high = e.bars.fromEnd(1).High
	low = e.bars.fromEnd(1).Low
	for i := 2; i <= e.cfg.ChannelPeriod; i++ {
		b := e.bars.fromEnd(i)
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}
