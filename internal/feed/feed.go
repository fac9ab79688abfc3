package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const (
	pollInterval = time.Second
	errorBackoff = 5 * time.Second
	maxQuoteAge  = 10 * time.Second
)

// BarHandler receives each completed bar. Callbacks run on the feed's single
// polling goroutine, so handlers never see concurrent calls.
type BarHandler func(bar strategy.Bar, source string)

// Feed polls quotes, synthesizes bars, and delivers them to a handler.
type Feed struct {
	client   *Client
	symbol   string
	interval time.Duration
	handler  BarHandler
	logger   zerolog.Logger

	builder *QuoteBarBuilder
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New creates a feed for one symbol at the given bar interval.
func New(client *Client, symbol string, interval time.Duration, handler BarHandler, logger zerolog.Logger) *Feed {
	return &Feed{
		client:   client,
		symbol:   symbol,
		interval: interval,
		handler:  handler,
		logger:   logger,
		builder:  NewQuoteBarBuilder(interval),
		stop:     make(chan struct{}),
	}
}

// FetchHistorical pulls count bars for warmup, oldest first.
func (f *Feed) FetchHistorical(ctx context.Context, count int) ([]strategy.Bar, error) {
	minutes := int(f.interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return f.client.GetBars(ctx, f.symbol, minutes, count)
}

// Start launches the polling loop.
func (f *Feed) Start(ctx context.Context) {
	f.wg.Add(1)
	go f.loop(ctx)
	f.logger.Info().Str("symbol", f.symbol).Dur("interval", f.interval).Msg("feed started")
}

// Stop halts polling and flushes the partial bar, if any.
func (f *Feed) Stop() {
	f.once.Do(func() { close(f.stop) })
	f.wg.Wait()
	if bar, ok := f.builder.Flush(); ok {
		f.handler(bar, "quote_synth_partial")
	}
	f.logger.Info().Str("symbol", f.symbol).Msg("feed stopped")
}

func (f *Feed) loop(ctx context.Context) {
	defer f.wg.Done()

	delay := pollInterval
	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		quote, err := f.client.GetQuote(ctx, f.symbol)
		if err != nil {
			f.logger.Warn().Err(err).Msg("quote poll failed, backing off")
			delay = errorBackoff
			continue
		}
		delay = pollInterval

		if quote.IsStale(maxQuoteAge) {
			f.logger.Warn().Time("quote_ts", quote.Timestamp).Msg("stale quote, skipping")
			continue
		}

		if bar, ok := f.builder.Push(*quote); ok {
			f.handler(bar, "quote_synth")
		}
	}
}
