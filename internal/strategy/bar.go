package strategy

import (
	"fmt"
	"math"
	"time"
)

// Bar is a single OHLCV price bar. Bars are immutable once ingested and must
// arrive in non-decreasing timestamp order; the engine never re-sorts.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate rejects bars that would corrupt channel or position state.
// Insufficient history is not an error; malformed prices are.
func (b Bar) Validate() error {
	for _, f := range [...]struct {
		name  string
		value float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
		{"volume", b.Volume},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("invalid bar: %s is not finite", f.name)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("invalid bar: high %.2f below low %.2f", b.High, b.Low)
	}
	return nil
}
