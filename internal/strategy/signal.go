package strategy

import "time"

// Direction of a trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// EntryType identifies which entry rule produced a position.
type EntryType string

const (
	EntryBounce     EntryType = "bounce"
	EntryFailedTest EntryType = "failed_test"
	EntryBreakout   EntryType = "breakout"
)

// ExitReason is the closed set of ways a position can close.
type ExitReason string

const (
	ExitTarget    ExitReason = "target"
	ExitStop      ExitReason = "stop"
	ExitTrailStop ExitReason = "trail_stop"
	ExitTime      ExitReason = "time"
)

// Action tags a signal as an entry or an exit.
type Action string

const (
	ActionEntry Action = "entry"
	ActionExit  Action = "exit"
)

// Signal is the single event an Ingest call can produce. Entry signals carry
// Price/Stop/Target and a free-text Reason; exit signals carry the fill and
// pnl fields plus the closed ExitReason (mirrored into Reason for display).
type Signal struct {
	Action    Action    `json:"action"`
	Direction Direction `json:"direction"`
	EntryType EntryType `json:"entry_type"`

	// Entry fields.
	Price  float64 `json:"price,omitempty"`
	Stop   float64 `json:"stop,omitempty"`
	Target float64 `json:"target,omitempty"`

	// Exit fields. PnLPoints is positive for a profitable trade regardless
	// of direction; PnLCurrency is PnLPoints scaled by the point value.
	EntryPrice  float64    `json:"entry_price,omitempty"`
	ExitPrice   float64    `json:"exit_price,omitempty"`
	PnLPoints   float64    `json:"pnl_points"`
	PnLCurrency float64    `json:"pnl_currency"`
	ExitReason  ExitReason `json:"exit_reason,omitempty"`
	BarsHeld    int        `json:"bars_held,omitempty"`

	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
