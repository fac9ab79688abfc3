package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// timestamp layouts accepted in CSV files, tried in order.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// LoadCSV reads bars from a CSV file with a header row of
// timestamp,open,high,low,close[,volume]. Rows must be in non-decreasing
// timestamp order; ties are allowed, going backwards is not.
func LoadCSV(path string) ([]strategy.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	bars := make([]strategy.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 5 {
			return nil, fmt.Errorf("row %d: want at least 5 fields, got %d", i+2, len(rec))
		}
		bar, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if len(bars) > 0 && bar.Timestamp.Before(bars[len(bars)-1].Timestamp) {
			return nil, fmt.Errorf("row %d: timestamp goes backwards", i+2)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRow(rec []string) (strategy.Bar, error) {
	var bar strategy.Bar
	var err error

	for _, layout := range csvTimeLayouts {
		if bar.Timestamp, err = time.Parse(layout, rec[0]); err == nil {
			break
		}
	}
	if err != nil {
		return bar, fmt.Errorf("bad timestamp %q", rec[0])
	}

	fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close}
	for i, dst := range fields {
		if *dst, err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return bar, fmt.Errorf("bad price %q", rec[i+1])
		}
	}
	if len(rec) > 5 && rec[5] != "" {
		if bar.Volume, err = strconv.ParseFloat(rec[5], 64); err != nil {
			return bar, fmt.Errorf("bad volume %q", rec[5])
		}
	}
	return bar, nil
}

// TailYears keeps only the bars from the last n years of the data, measured
// back from the final bar. n<=0 keeps everything.
func TailYears(bars []strategy.Bar, n int) []strategy.Bar {
	if n <= 0 || len(bars) == 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Timestamp.AddDate(-n, 0, 0)
	for i, b := range bars {
		if !b.Timestamp.Before(cutoff) {
			return bars[i:]
		}
	}
	return bars
}

// Resample aggregates 1-minute bars into n-minute bars aligned to n-minute
// boundaries. Every non-empty bucket produces a bar, so missing minutes from
// halts or holidays shrink a bar rather than drop it; only a trailing bucket
// still short of n bars is discarded. n=1 returns the input unchanged.
func Resample(bars []strategy.Bar, n int) []strategy.Bar {
	if n <= 1 || len(bars) == 0 {
		return bars
	}

	window := time.Duration(n) * time.Minute
	var out []strategy.Bar
	var cur strategy.Bar
	var count int

	for _, b := range bars {
		bucket := b.Timestamp.Truncate(window)
		if count == 0 || !bucket.Equal(cur.Timestamp) {
			if count > 0 {
				out = append(out, cur)
			}
			cur = strategy.Bar{
				Timestamp: bucket,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			}
			count = 1
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
		count++
	}
	if count == n {
		out = append(out, cur)
	}
	return out
}
