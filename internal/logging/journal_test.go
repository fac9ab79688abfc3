package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	quiet := &Logger{mu: &sync.Mutex{}, output: os.Stderr, level: FATAL}
	j, err := NewJournal(t.TempDir(), quiet)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	return j
}

func readLines(t *testing.T, path string) []journalEntry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var out []journalEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e journalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad jsonl line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

func TestJournalWritesBarLines(t *testing.T) {
	j := newTestJournal(t)
	j.OnBar(strategy.Bar{
		Timestamp: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Open:      4500, High: 4502, Low: 4499, Close: 4501, Volume: 900,
	}, "historical")

	lines := readLines(t, j.barsFile)
	if len(lines) != 1 {
		t.Fatalf("bar lines = %d, want 1", len(lines))
	}
	if lines[0].EventType != "bar" || lines[0].Data["source"] != "historical" {
		t.Errorf("entry = %+v", lines[0])
	}
	if lines[0].Data["close"] != 4501.0 {
		t.Errorf("close = %v", lines[0].Data["close"])
	}
}

func TestJournalTradeLifecycle(t *testing.T) {
	j := newTestJournal(t)
	j.OnEntry(&strategy.Signal{
		Action:    strategy.ActionEntry,
		Direction: strategy.Short,
		EntryType: strategy.EntryFailedTest,
		Price:     4505, Stop: 4509, Target: 4501,
		Reason: "failed test: broke 4510.00, reclaimed below",
	})
	j.OnExit(&strategy.Signal{
		Action:     strategy.ActionExit,
		Direction:  strategy.Short,
		EntryType:  strategy.EntryFailedTest,
		EntryPrice: 4505, ExitPrice: 4501,
		PnLPoints: 4, PnLCurrency: 200,
		ExitReason: strategy.ExitTarget,
		BarsHeld:   2,
	})

	lines := readLines(t, j.tradesFile)
	if len(lines) != 2 {
		t.Fatalf("trade lines = %d, want 2", len(lines))
	}
	if lines[0].EventType != "entry" || lines[1].EventType != "exit" {
		t.Errorf("event types = %s, %s", lines[0].EventType, lines[1].EventType)
	}
	if lines[1].Data["session_wins"] != 1.0 || lines[1].Data["session_pnl"] != 4.0 {
		t.Errorf("session counters = %v", lines[1].Data)
	}

	if j.wins != 1 || j.losses != 0 || j.exits != 1 {
		t.Errorf("counters = wins %d losses %d exits %d", j.wins, j.losses, j.exits)
	}
}

func TestJournalBreakGoesToSignals(t *testing.T) {
	j := newTestJournal(t)
	j.OnBreak(strategy.Short, 4510, 4512)

	lines := readLines(t, j.signalsFile)
	if len(lines) != 1 || lines[0].EventType != "break_detected" {
		t.Fatalf("signal lines = %+v", lines)
	}
	if lines[0].Data["level"] != 4510.0 {
		t.Errorf("level = %v", lines[0].Data["level"])
	}
}
