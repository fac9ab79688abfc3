package strategy

import "testing"

func bounceOnlyConfig() Config {
	cfg := Validated()
	cfg.EnableFailedTest = false
	cfg.EnableBounce = true
	cfg.UseRunner = false
	return cfg
}

func breakoutOnlyConfig() Config {
	cfg := Validated()
	cfg.EnableFailedTest = false
	cfg.EnableBreakout = true
	cfg.UseRunner = false
	return cfg
}

func TestBounceShortEntry(t *testing.T) {
	e := newTestEngine(t, bounceOnlyConfig())
	bb := newBarBuilder()
	warmupQuiet(t, e, bb, 15)

	// High touches within tolerance of 4510, close rejects below 4509.
	sig := ingest(t, e, bb.next(4506, 4509.5, 4504, 4507))
	if sig == nil || sig.EntryType != EntryBounce || sig.Direction != Short {
		t.Fatalf("expected bounce short, got %+v", sig)
	}
	if sig.Price != 4507 {
		t.Errorf("expected entry at close 4507, got %.2f", sig.Price)
	}
}

func TestBounceLongEntry(t *testing.T) {
	e := newTestEngine(t, bounceOnlyConfig())
	bb := newBarBuilder()
	warmupQuiet(t, e, bb, 15)

	// Low touches within tolerance of 4500, close rejects above 4501.
	sig := ingest(t, e, bb.next(4504, 4505, 4500.5, 4503))
	if sig == nil || sig.EntryType != EntryBounce || sig.Direction != Long {
		t.Fatalf("expected bounce long, got %+v", sig)
	}
}

func TestBounceRequiresRejection(t *testing.T) {
	e := newTestEngine(t, bounceOnlyConfig())
	bb := newBarBuilder()
	warmupQuiet(t, e, bb, 15)

	// Touches the high band but closes inside the tolerance zone: no entry.
	if sig := ingest(t, e, bb.next(4508, 4509.5, 4507, 4509.2)); sig != nil {
		t.Fatalf("close inside the tolerance zone must not enter: %+v", sig)
	}
}

func TestBreakoutEntries(t *testing.T) {
	tests := []struct {
		name      string
		bar       [4]float64 // o, h, l, c
		direction Direction
	}{
		{"long above channel", [4]float64{4506, 4514, 4505, 4513}, Long},
		{"short below channel", [4]float64{4504, 4505, 4496, 4497.5}, Short},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, breakoutOnlyConfig())
			bb := newBarBuilder()
			warmupQuiet(t, e, bb, 15)

			sig := ingest(t, e, bb.next(tt.bar[0], tt.bar[1], tt.bar[2], tt.bar[3]))
			if sig == nil || sig.EntryType != EntryBreakout || sig.Direction != tt.direction {
				t.Fatalf("expected breakout %s, got %+v", tt.direction, sig)
			}
		})
	}
}

func TestBreakoutRequiresMargin(t *testing.T) {
	e := newTestEngine(t, breakoutOnlyConfig())
	bb := newBarBuilder()
	warmupQuiet(t, e, bb, 15)

	// Close clears the channel high but not by breakout_min (2.0).
	if sig := ingest(t, e, bb.next(4506, 4512, 4505, 4511.5)); sig != nil {
		t.Fatalf("breakout below the minimum margin must not enter: %+v", sig)
	}
}

func TestFailedTestOutranksBreakout(t *testing.T) {
	cfg := Validated()
	cfg.EnableBreakout = true
	cfg.UseRunner = false
	e := newTestEngine(t, cfg)
	bb := newBarBuilder()

	for i := 0; i < 15; i++ {
		ingest(t, e, bb.next(4505, 4510, 4500, 4505))
	}
	ingest(t, e, bb.next(4505, 4512, 4504, 4508)) // break high

	// This bar satisfies both a failed test (close back under 4510) and a
	// downside breakout (close under 4500 - 2.0). Failed test wins.
	sig := ingest(t, e, bb.next(4504, 4505, 4496, 4497))
	if sig == nil || sig.EntryType != EntryFailedTest || sig.Direction != Short {
		t.Fatalf("expected failed-test short to outrank breakout, got %+v", sig)
	}
}
