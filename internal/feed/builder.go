package feed

import (
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// QuoteBarBuilder synthesizes OHLC bars from a stream of quotes, used when
// the venue cannot serve real bars. Prices are bid/ask midpoints. A bar is
// emitted when the first quote of the next interval arrives, so the emitted
// bar carries the full range of quotes seen during its window.
type QuoteBarBuilder struct {
	interval time.Duration

	started bool
	start   time.Time
	open    float64
	high    float64
	low     float64
	close   float64
	count   int
}

// NewQuoteBarBuilder builds bars of the given duration.
func NewQuoteBarBuilder(interval time.Duration) *QuoteBarBuilder {
	return &QuoteBarBuilder{interval: interval}
}

// Push folds a quote into the current bar. When the quote belongs to a new
// interval, the finished bar is returned with ok=true; otherwise ok is false.
func (b *QuoteBarBuilder) Push(q Quote) (strategy.Bar, bool) {
	price := q.Mid()
	bucket := q.Timestamp.Truncate(b.interval)

	if !b.started {
		b.begin(bucket, price)
		return strategy.Bar{}, false
	}

	if bucket.After(b.start) {
		done := b.snapshot()
		b.begin(bucket, price)
		return done, true
	}

	if price > b.high {
		b.high = price
	}
	if price < b.low {
		b.low = price
	}
	b.close = price
	b.count++
	return strategy.Bar{}, false
}

// Flush returns the in-progress bar, if any, without waiting for the next
// interval. Used at shutdown.
func (b *QuoteBarBuilder) Flush() (strategy.Bar, bool) {
	if !b.started {
		return strategy.Bar{}, false
	}
	done := b.snapshot()
	b.started = false
	return done, true
}

func (b *QuoteBarBuilder) begin(start time.Time, price float64) {
	b.started = true
	b.start = start
	b.open = price
	b.high = price
	b.low = price
	b.close = price
	b.count = 1
}

func (b *QuoteBarBuilder) snapshot() strategy.Bar {
	return strategy.Bar{
		Timestamp: b.start,
		Open:      b.open,
		High:      b.high,
		Low:       b.low,
		Close:     b.close,
		Volume:    float64(b.count),
	}
}
