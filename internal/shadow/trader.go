// Package shadow runs the strategy against live data without sending orders.
// Every signal is journaled, published and optionally persisted, so a
// session produces the same audit trail a live trader would.
package shadow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wamppus/don-futures-v1/config"
	"github.com/wamppus/don-futures-v1/internal/cache"
	"github.com/wamppus/don-futures-v1/internal/database"
	"github.com/wamppus/don-futures-v1/internal/events"
	"github.com/wamppus/don-futures-v1/internal/feed"
	"github.com/wamppus/don-futures-v1/internal/logging"
	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const statusInterval = time.Minute

// Trader owns one engine, one data feed, and the surrounding plumbing for a
// shadow session.
type Trader struct {
	cfg       config.Config
	sessionID string
	startedAt time.Time

	engine  *strategy.Engine
	feed    *feed.Feed
	bus     *events.Bus
	journal *logging.Journal
	repo    *database.Repository
	cache   *cache.Cache
	logger  *logging.Logger

	// mu serializes engine access between the feed goroutine and Status
	// calls from the API.
	mu sync.Mutex
}

// New assembles a trader. repo may be nil; cache may be disabled.
func New(cfg config.Config, bus *events.Bus, repo *database.Repository, liveCache *cache.Cache, feedLogger zerolog.Logger, logger *logging.Logger) (*Trader, error) {
	journal, err := logging.NewJournal(cfg.Logging.JournalDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	engine, err := strategy.New(cfg.Strategy, strategy.MultiObserver{
		journal,
		events.NewObserver(bus),
	})
	if err != nil {
		return nil, err
	}

	t := &Trader{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		engine:    engine,
		bus:       bus,
		journal:   journal,
		repo:      repo,
		cache:     liveCache,
		logger:    logger.WithComponent("shadow"),
	}

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.Username, cfg.Feed.APIKey, feedLogger)
	t.feed = feed.New(client, cfg.Feed.Symbol, cfg.Feed.Interval(), t.onBar, feedLogger)
	return t, nil
}

// SessionID returns the session identifier assigned at construction.
func (t *Trader) SessionID() string { return t.sessionID }

// Status returns a thread-safe engine snapshot.
func (t *Trader) Status() strategy.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Status()
}

// Warmup replays historical bars so the channel is formed before the first
// live bar arrives.
func (t *Trader) Warmup(ctx context.Context) error {
	bars, err := t.feed.FetchHistorical(ctx, t.cfg.Feed.WarmupBars)
	if err != nil {
		return fmt.Errorf("fetch warmup bars: %w", err)
	}
	if len(bars) < t.cfg.Strategy.ChannelPeriod+5 {
		return fmt.Errorf("warmup returned %d bars, need at least %d",
			len(bars), t.cfg.Strategy.ChannelPeriod+5)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, bar := range bars {
		if _, err := t.engine.Ingest(bar, "historical"); err != nil {
			return fmt.Errorf("warmup bar %d: %w", i, err)
		}
	}
	t.logger.Info("warmup complete", "bars", len(bars), "symbol", t.cfg.Feed.Symbol)
	return nil
}

// Run starts the feed and blocks until the context is cancelled, then shuts
// down and writes the session summary.
func (t *Trader) Run(ctx context.Context) error {
	t.startedAt = time.Now().UTC()
	if t.cache.Enabled() {
		t.cache.SetSessionID(ctx, t.sessionID)
	}
	t.bus.Publish(events.Event{Type: events.EventTraderStarted, Data: map[string]interface{}{
		"session": t.sessionID,
		"symbol":  t.cfg.Feed.Symbol,
	}})
	t.logger.Info("shadow session started", "session", t.sessionID, "symbol", t.cfg.Feed.Symbol)

	t.feed.Start(ctx)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			return nil
		case <-ticker.C:
			t.publishStatus(ctx)
		}
	}
}

func (t *Trader) onBar(bar strategy.Bar, source string) {
	t.mu.Lock()
	sig, err := t.engine.Ingest(bar, source)
	status := t.engine.Status()
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("bar rejected", "error", err)
		t.bus.PublishError("feed", "bar rejected", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if t.cache.Enabled() {
		t.cache.SetLastBar(ctx, t.cfg.Feed.Symbol, bar)
		t.cache.SetStatus(ctx, t.cfg.Feed.Symbol, status)
	}

	if sig != nil && t.repo != nil {
		if err := t.repo.SaveSignal(ctx, t.sessionID, t.cfg.Feed.Symbol, *sig); err != nil {
			t.logger.Error("persist signal failed", "error", err)
		}
	}
}

func (t *Trader) publishStatus(ctx context.Context) {
	status := t.Status()
	t.logger.Info("session status",
		"bars", status.BarsLoaded,
		"in_position", status.InPosition,
		"pnl_pts", status.Stats.TotalPnLPoints,
	)
	if t.cache.Enabled() {
		t.cache.SetStatus(ctx, t.cfg.Feed.Symbol, status)
	}
}

func (t *Trader) shutdown() {
	t.feed.Stop()

	status := t.Status()
	t.bus.Publish(events.Event{Type: events.EventTraderStopped, Data: map[string]interface{}{
		"session": t.sessionID,
		"pnl_pts": status.Stats.TotalPnLPoints,
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if t.repo != nil {
		summary := database.SessionSummary{
			SessionID:   t.sessionID,
			Symbol:      t.cfg.Feed.Symbol,
			Bars:        int64(status.BarsLoaded),
			Entries:     int64(status.Stats.Entries),
			Exits:       int64(status.Stats.Exits),
			Wins:        int64(status.Stats.Wins),
			Losses:      int64(status.Stats.Losses),
			PnLPoints:   status.Stats.TotalPnLPoints,
			PnLCurrency: status.Stats.TotalPnLPoints * t.cfg.Strategy.PointValue,
			StartedAt:   t.startedAt,
			EndedAt:     time.Now().UTC(),
		}
		if err := t.repo.SaveSessionSummary(ctx, summary); err != nil {
			t.logger.Error("persist session summary failed", "error", err)
		}
	}

	t.journal.SessionSummary()
	t.logger.Info("shadow session stopped",
		"session", t.sessionID,
		"entries", status.Stats.Entries,
		"exits", status.Stats.Exits,
		"pnl_pts", status.Stats.TotalPnLPoints,
	)
}
