package strategy

import "fmt"

// Config holds the strategy settings. It is immutable for the lifetime of an
// Engine; there is no runtime mutation mid-session.
type Config struct {
	// Channel
	ChannelPeriod int `json:"channel_period"`
	// ExitPeriod is retained for config compatibility with earlier channel
	// variants; the engine does not read it.
	ExitPeriod int `json:"exit_period"`

	// Entry modes
	EnableBounce     bool `json:"enable_bounce"`
	EnableFailedTest bool `json:"enable_failed_test"`
	EnableBreakout   bool `json:"enable_breakout"`

	// Entry thresholds (points)
	TouchTolerancePts float64 `json:"touch_tolerance_pts"`
	BreakoutMinPts    float64 `json:"breakout_min_pts"`

	// Risk (points)
	StopPts   float64 `json:"stop_pts"`
	TargetPts float64 `json:"target_pts"`

	// Trailing stop
	UseRunner          bool    `json:"use_runner"`
	TrailActivationPts float64 `json:"trail_activation_pts"`
	TrailDistancePts   float64 `json:"trail_distance_pts"`

	// Time exit
	MaxBars int `json:"max_bars"`

	// Contract specs
	TickSize   float64 `json:"tick_size"`
	TickValue  float64 `json:"tick_value"`
	PointValue float64 `json:"point_value"`
}

// Validated returns the validated ES settings: failed-test only, tight
// trailing runner.
func Validated() Config {
	return Config{
		ChannelPeriod:      10,
		ExitPeriod:         5,
		EnableFailedTest:   true,
		TouchTolerancePts:  1.0,
		BreakoutMinPts:     2.0,
		StopPts:            4.0,
		TargetPts:          4.0,
		UseRunner:          true,
		TrailActivationPts: 1.0,
		TrailDistancePts:   0.5,
		MaxBars:            5,
		TickSize:           0.25,
		TickValue:          12.50,
		PointValue:         50.0,
	}
}

// Validate fails fast on settings that would make the engine misbehave
// mid-stream.
func (c Config) Validate() error {
	if c.ChannelPeriod <= 0 {
		return fmt.Errorf("channel_period must be positive, got %d", c.ChannelPeriod)
	}
	if c.StopPts <= 0 {
		return fmt.Errorf("stop_pts must be positive, got %.2f", c.StopPts)
	}
	if c.TargetPts <= 0 {
		return fmt.Errorf("target_pts must be positive, got %.2f", c.TargetPts)
	}
	if c.MaxBars <= 0 {
		return fmt.Errorf("max_bars must be positive, got %d", c.MaxBars)
	}
	if c.TouchTolerancePts < 0 {
		return fmt.Errorf("touch_tolerance_pts must not be negative, got %.2f", c.TouchTolerancePts)
	}
	if c.BreakoutMinPts < 0 {
		return fmt.Errorf("breakout_min_pts must not be negative, got %.2f", c.BreakoutMinPts)
	}
	if c.UseRunner {
		if c.TrailDistancePts <= 0 {
			return fmt.Errorf("trail_distance_pts must be positive, got %.2f", c.TrailDistancePts)
		}
		if c.TrailActivationPts < 0 {
			return fmt.Errorf("trail_activation_pts must not be negative, got %.2f", c.TrailActivationPts)
		}
	}
	if c.PointValue <= 0 {
		return fmt.Errorf("point_value must be positive, got %.2f", c.PointValue)
	}
	return nil
}
