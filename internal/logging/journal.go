package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// journalEntry is one JSONL record.
type journalEntry struct {
	Timestamp string                 `json:"timestamp"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
}

// Journal records everything the engine sees and decides as append-only JSONL
// files under a log directory: bars (per day), signals, trades, and position
// state. It implements strategy.Observer and keeps the session counters the
// end-of-session summary reports.
type Journal struct {
	mu     sync.Mutex
	dir    string
	logger *Logger

	barsFile    string
	signalsFile string
	tradesFile  string
	stateFile   string

	sessionStart time.Time
	barsSeen     int
	entries      int
	exits        int
	wins         int
	losses       int
	totalPnLPts  float64
}

// NewJournal creates the log directory and the journal files within it.
func NewJournal(dir string, logger *Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if logger == nil {
		logger = Default()
	}
	today := time.Now().Format("2006-01-02")
	return &Journal{
		dir:          dir,
		logger:       logger.WithComponent("journal"),
		barsFile:     filepath.Join(dir, fmt.Sprintf("bars_%s.jsonl", today)),
		signalsFile:  filepath.Join(dir, "signals.jsonl"),
		tradesFile:   filepath.Join(dir, "trades.jsonl"),
		stateFile:    filepath.Join(dir, "state.jsonl"),
		sessionStart: time.Now(),
	}, nil
}

func (j *Journal) append(path, eventType string, data map[string]interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		j.logger.Error("journal open failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	line, _ := json.Marshal(journalEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		EventType: eventType,
		Data:      data,
	})
	if _, err := f.Write(append(line, '\n')); err != nil {
		j.logger.Error("journal write failed", "path", path, "error", err)
	}
}

func (j *Journal) OnBar(bar strategy.Bar, source string) {
	j.mu.Lock()
	j.barsSeen++
	j.mu.Unlock()

	j.logger.Debug("bar", "source", source, "time", bar.Timestamp,
		"open", bar.Open, "high", bar.High, "low", bar.Low, "close", bar.Close)
	j.append(j.barsFile, "bar", map[string]interface{}{
		"bar_time": bar.Timestamp,
		"open":     bar.Open,
		"high":     bar.High,
		"low":      bar.Low,
		"close":    bar.Close,
		"volume":   bar.Volume,
		"source":   source,
	})
}

func (j *Journal) OnChannel(high, low float64, period int) {
	j.logger.Debug("channel", "period", period, "high", high, "low", low, "range", high-low)
}

func (j *Journal) OnBreak(direction strategy.Direction, level, price float64) {
	j.logger.Info("break detected", "direction", direction, "level", level, "price", price)
	j.append(j.signalsFile, "break_detected", map[string]interface{}{
		"direction": direction,
		"level":     level,
		"price":     price,
	})
}

func (j *Journal) OnTrailUpdate(oldStop, newStop, price float64) {
	j.logger.Info("trail update", "old_stop", oldStop, "new_stop", newStop, "price", price)
	j.append(j.stateFile, "trail_update", map[string]interface{}{
		"old_stop":      oldStop,
		"new_stop":      newStop,
		"current_price": price,
	})
}

func (j *Journal) OnEntry(sig *strategy.Signal) {
	j.mu.Lock()
	j.entries++
	j.mu.Unlock()

	j.logger.Info("ENTRY", "direction", sig.Direction, "entry_type", sig.EntryType,
		"price", sig.Price, "stop", sig.Stop, "target", sig.Target, "reason", sig.Reason)
	j.append(j.tradesFile, "entry", map[string]interface{}{
		"direction":  sig.Direction,
		"entry_type": sig.EntryType,
		"price":      sig.Price,
		"stop":       sig.Stop,
		"target":     sig.Target,
		"reason":     sig.Reason,
	})
}

func (j *Journal) OnExit(sig *strategy.Signal) {
	j.mu.Lock()
	j.exits++
	j.totalPnLPts += sig.PnLPoints
	if sig.PnLPoints > 0 {
		j.wins++
	} else {
		j.losses++
	}
	wins, losses, total := j.wins, j.losses, j.totalPnLPts
	j.mu.Unlock()

	j.logger.Info("EXIT", "direction", sig.Direction, "entry_type", sig.EntryType,
		"entry_price", sig.EntryPrice, "exit_price", sig.ExitPrice,
		"pnl_pts", sig.PnLPoints, "pnl_currency", sig.PnLCurrency,
		"reason", sig.ExitReason, "session_wins", wins, "session_losses", losses)
	j.append(j.tradesFile, "exit", map[string]interface{}{
		"direction":      sig.Direction,
		"entry_type":     sig.EntryType,
		"entry_price":    sig.EntryPrice,
		"exit_price":     sig.ExitPrice,
		"pnl_pts":        sig.PnLPoints,
		"pnl_currency":   sig.PnLCurrency,
		"reason":         sig.ExitReason,
		"bars_held":      sig.BarsHeld,
		"session_wins":   wins,
		"session_losses": losses,
		"session_pnl":    total,
	})
}

func (j *Journal) OnPositionState(st strategy.Status) {
	j.logger.Debug("position", "direction", st.Direction, "entry_price", st.EntryPrice,
		"current_stop", st.CurrentStop, "trail_active", st.TrailActive)
	j.append(j.stateFile, "position_state", map[string]interface{}{
		"in_position":  st.InPosition,
		"direction":    st.Direction,
		"entry_price":  st.EntryPrice,
		"current_stop": st.CurrentStop,
		"trail_active": st.TrailActive,
	})
}

// SessionSummary logs the end-of-session counters.
func (j *Journal) SessionSummary() {
	j.mu.Lock()
	defer j.mu.Unlock()

	winRate := 0.0
	if j.exits > 0 {
		winRate = float64(j.wins) / float64(j.exits) * 100
	}
	j.logger.Info("session summary",
		"duration", time.Since(j.sessionStart).String(),
		"bars", j.barsSeen,
		"entries", j.entries,
		"exits", j.exits,
		"wins", j.wins,
		"losses", j.losses,
		"win_rate_pct", winRate,
		"total_pnl_pts", j.totalPnLPts,
	)
}
