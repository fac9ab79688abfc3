package feed

import (
	"testing"
	"time"
)

func quoteAt(ts time.Time, bid, ask float64) Quote {
	return Quote{Bid: bid, Ask: ask, Timestamp: ts, Source: "test"}
}

func TestQuoteBarBuilder(t *testing.T) {
	b := NewQuoteBarBuilder(5 * time.Minute)
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	// First interval: mids 4500.5, 4502.0, 4499.0, 4501.0.
	if _, ok := b.Push(quoteAt(base, 4500.25, 4500.75)); ok {
		t.Fatal("first quote should not emit a bar")
	}
	if _, ok := b.Push(quoteAt(base.Add(time.Minute), 4501.75, 4502.25)); ok {
		t.Fatal("quote inside interval should not emit a bar")
	}
	b.Push(quoteAt(base.Add(2*time.Minute), 4498.75, 4499.25))
	b.Push(quoteAt(base.Add(3*time.Minute), 4500.75, 4501.25))

	// First quote of the next interval closes out the bar.
	bar, ok := b.Push(quoteAt(base.Add(5*time.Minute), 4503.75, 4504.25))
	if !ok {
		t.Fatal("expected completed bar at interval boundary")
	}
	if !bar.Timestamp.Equal(base) {
		t.Errorf("bar timestamp = %v, want %v", bar.Timestamp, base)
	}
	if bar.Open != 4500.5 || bar.High != 4502.0 || bar.Low != 4499.0 || bar.Close != 4501.0 {
		t.Errorf("bar OHLC = %.2f/%.2f/%.2f/%.2f, want 4500.50/4502.00/4499.00/4501.00",
			bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Volume != 4 {
		t.Errorf("quote count = %.0f, want 4", bar.Volume)
	}
}

func TestQuoteBarBuilderAlignsToInterval(t *testing.T) {
	b := NewQuoteBarBuilder(5 * time.Minute)
	// 09:33 falls inside the 09:30 bucket.
	first := time.Date(2024, 1, 2, 9, 33, 0, 0, time.UTC)
	b.Push(quoteAt(first, 4500, 4500))

	bar, ok := b.Push(quoteAt(first.Add(3*time.Minute), 4501, 4501))
	if !ok {
		t.Fatal("expected bar when crossing into 09:35 bucket")
	}
	want := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	if !bar.Timestamp.Equal(want) {
		t.Errorf("bar timestamp = %v, want bucket start %v", bar.Timestamp, want)
	}
}

func TestQuoteBarBuilderFlush(t *testing.T) {
	b := NewQuoteBarBuilder(5 * time.Minute)
	if _, ok := b.Flush(); ok {
		t.Fatal("flush with no quotes should return nothing")
	}

	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	b.Push(quoteAt(ts, 4500, 4501))
	bar, ok := b.Flush()
	if !ok {
		t.Fatal("expected partial bar from flush")
	}
	if bar.Open != 4500.5 || bar.Close != 4500.5 {
		t.Errorf("partial bar = %+v", bar)
	}
	if _, ok := b.Flush(); ok {
		t.Fatal("second flush should be empty")
	}
}

func TestQuoteStaleness(t *testing.T) {
	fresh := Quote{Timestamp: time.Now()}
	if fresh.IsStale(10 * time.Second) {
		t.Error("fresh quote reported stale")
	}
	old := Quote{Timestamp: time.Now().Add(-time.Minute)}
	if !old.IsStale(10 * time.Second) {
		t.Error("minute-old quote reported fresh")
	}
}
