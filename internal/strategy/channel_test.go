package strategy

import (
	"testing"
	"time"
)

func TestBarRing(t *testing.T) {
	r := newBarRing(3)
	mk := func(c float64) Bar { return Bar{Close: c} }

	r.push(mk(1))
	r.push(mk(2))
	if r.len() != 2 {
		t.Fatalf("expected len 2, got %d", r.len())
	}
	if r.fromEnd(0).Close != 2 || r.fromEnd(1).Close != 1 {
		t.Errorf("fromEnd order wrong: %v %v", r.fromEnd(0), r.fromEnd(1))
	}

	r.push(mk(3))
	r.push(mk(4)) // evicts 1
	if r.len() != 3 {
		t.Fatalf("expected len capped at 3, got %d", r.len())
	}
	for i, want := range []float64{4, 3, 2} {
		if got := r.fromEnd(i).Close; got != want {
			t.Errorf("fromEnd(%d) = %.0f, want %.0f", i, got, want)
		}
	}
}

func TestChannelExcludesCurrentBar(t *testing.T) {
	// The current bar sets a new extreme; the channel reported while
	// processing it must not include it.
	e := newTestEngine(t, failedTestOnlyConfig())
	bb := newBarBuilder()

	var chHigh, chLow float64
	e.obs = channelCapture{high: &chHigh, low: &chLow}

	for i := 0; i < 15; i++ {
		ingest(t, e, bb.next(4505, 4510, 4500, 4505))
	}
	ingest(t, e, bb.next(4505, 4520, 4490, 4505))

	if chHigh != 4510 || chLow != 4500 {
		t.Errorf("channel must exclude the current bar: got %.2f/%.2f", chHigh, chLow)
	}
}

type channelCapture struct {
	NopObserver
	high, low *float64
}

func (c channelCapture) OnChannel(high, low float64, _ int) {
	*c.high = high
	*c.low = low
}

func TestHistoryRetentionCap(t *testing.T) {
	e := newTestEngine(t, failedTestOnlyConfig())
	bb := newBarBuilder()

	for i := 0; i < 450; i++ {
		// Slow drift keeps the walk signal-free.
		px := 4505 + float64(i)*0.001
		ingest(t, e, bb.next(px, px+0.3, px-0.3, px))
	}
	if got := e.Status().BarsLoaded; got != 200 {
		t.Errorf("expected retention cap of 200 bars, got %d", got)
	}
}

func TestRetentionGrowsWithLongPeriods(t *testing.T) {
	cfg := failedTestOnlyConfig()
	cfg.ChannelPeriod = 250 // larger than the default retention cap
	e := newTestEngine(t, cfg)

	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		b := Bar{Timestamp: ts, Open: 4505, High: 4506, Low: 4504, Close: 4505}
		ts = ts.Add(time.Minute)
		if _, err := e.Ingest(b, "test"); err != nil {
			t.Fatalf("Ingest error: %v", err)
		}
	}
	if got := e.Status().BarsLoaded; got != 255 {
		t.Errorf("retention must cover period+warmup: expected 255, got %d", got)
	}
}
