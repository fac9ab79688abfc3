// Package backtest replays historical bars through the strategy engine and
// aggregates trade statistics.
package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/wamppus/don-futures-v1/internal/strategy"

	"github.com/rs/zerolog"
)

// Trade is one completed round trip.
type Trade struct {
	Direction   strategy.Direction  `json:"direction"`
	EntryType   strategy.EntryType  `json:"entry_type"`
	EntryPrice  float64             `json:"entry_price"`
	ExitPrice   float64             `json:"exit_price"`
	PnLPoints   float64             `json:"pnl_points"`
	PnLCurrency float64             `json:"pnl_currency"`
	ExitReason  strategy.ExitReason `json:"exit_reason"`
	BarsHeld    int                 `json:"bars_held"`
}

// Result summarizes a backtest run.
type Result struct {
	Bars          int                         `json:"bars"`
	Trades        []Trade                     `json:"trades"`
	TotalTrades   int                         `json:"total_trades"`
	Wins          int                         `json:"wins"`
	Losses        int                         `json:"losses"`
	WinRate       float64                     `json:"win_rate"`
	PnLPoints     float64                     `json:"pnl_points"`
	PnLCurrency   float64                     `json:"pnl_currency"`
	ProfitFactor  float64                     `json:"profit_factor"`
	LargestWin    float64                     `json:"largest_win"`
	LargestLoss   float64                     `json:"largest_loss"`
	MaxDrawdown   float64                     `json:"max_drawdown"`
	ExitBreakdown map[strategy.ExitReason]int `json:"exit_breakdown"`
}

// Runner replays bars through a fresh engine instance.
type Runner struct {
	cfg         strategy.Config
	slippagePts float64
	logger      zerolog.Logger
}

// NewRunner creates a backtest runner. slippagePts is deducted from each
// trade's points once, modeling entry and exit slippage combined.
func NewRunner(cfg strategy.Config, slippagePts float64, logger zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, slippagePts: slippagePts, logger: logger}
}

type tradeCollector struct {
	strategy.NopObserver
	trades []Trade
}

func (c *tradeCollector) OnExit(sig *strategy.Signal) {
	c.trades = append(c.trades, Trade{
		Direction:   sig.Direction,
		EntryType:   sig.EntryType,
		EntryPrice:  sig.EntryPrice,
		ExitPrice:   sig.ExitPrice,
		PnLPoints:   sig.PnLPoints,
		PnLCurrency: sig.PnLCurrency,
		ExitReason:  sig.ExitReason,
		BarsHeld:    sig.BarsHeld,
	})
}

// Run replays bars and returns aggregate results. A position still open at
// the end of the data is left open and not counted as a trade.
func (r *Runner) Run(bars []strategy.Bar) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to replay")
	}

	collector := &tradeCollector{}
	engine, err := strategy.New(r.cfg, collector)
	if err != nil {
		return nil, err
	}

	for i, bar := range bars {
		if _, err := engine.Ingest(bar, "backtest"); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
	}

	if r.slippagePts != 0 {
		pv := r.cfg.PointValue
		for i := range collector.trades {
			collector.trades[i].PnLPoints -= r.slippagePts
			collector.trades[i].PnLCurrency = collector.trades[i].PnLPoints * pv
		}
	}

	result := summarize(bars, collector.trades)
	r.logger.Info().
		Int("bars", result.Bars).
		Int("trades", result.TotalTrades).
		Float64("pnl_points", result.PnLPoints).
		Msg("backtest complete")
	return result, nil
}

func summarize(bars []strategy.Bar, trades []Trade) *Result {
	res := &Result{
		Bars:          len(bars),
		Trades:        trades,
		TotalTrades:   len(trades),
		ExitBreakdown: make(map[strategy.ExitReason]int),
	}

	var grossWin, grossLoss float64
	var equity, peak float64
	for _, t := range trades {
		res.PnLPoints += t.PnLPoints
		res.PnLCurrency += t.PnLCurrency
		res.ExitBreakdown[t.ExitReason]++

		if t.PnLPoints > 0 {
			res.Wins++
			grossWin += t.PnLPoints
			if t.PnLPoints > res.LargestWin {
				res.LargestWin = t.PnLPoints
			}
		} else {
			res.Losses++
			grossLoss += -t.PnLPoints
			if t.PnLPoints < res.LargestLoss {
				res.LargestLoss = t.PnLPoints
			}
		}

		equity += t.PnLPoints
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
		}
	}

	if res.TotalTrades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.TotalTrades) * 100
	}
	switch {
	case grossLoss > 0:
		res.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		res.ProfitFactor = math.Inf(1)
	}
	return res
}

// Report renders a plain-text summary.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bars replayed:   %d\n", r.Bars)
	fmt.Fprintf(&b, "trades:          %d (%d wins / %d losses, %.1f%% win rate)\n",
		r.TotalTrades, r.Wins, r.Losses, r.WinRate)
	fmt.Fprintf(&b, "pnl:             %+.2f pts ($%+.2f)\n", r.PnLPoints, r.PnLCurrency)
	if !math.IsInf(r.ProfitFactor, 1) {
		fmt.Fprintf(&b, "profit factor:   %.2f\n", r.ProfitFactor)
	} else {
		fmt.Fprintf(&b, "profit factor:   inf\n")
	}
	fmt.Fprintf(&b, "largest win:     %+.2f pts\n", r.LargestWin)
	fmt.Fprintf(&b, "largest loss:    %+.2f pts\n", r.LargestLoss)
	fmt.Fprintf(&b, "max drawdown:    %.2f pts\n", r.MaxDrawdown)
	for reason, n := range r.ExitBreakdown {
		fmt.Fprintf(&b, "exit %-11s %d\n", string(reason)+":", n)
	}
	return b.String()
}
