package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"strategy": {
			"channel_period": 20,
			"enable_failed_test": true,
			"touch_tolerance_pts": 1.0,
			"stop_pts": 3.0,
			"target_pts": 6.0,
			"max_bars": 8,
			"tick_size": 0.25,
			"tick_value": 12.5,
			"point_value": 50.0
		},
		"feed": {"symbol": "NQ", "interval_minutes": 5, "warmup_bars": 60},
		"server": {"host": "127.0.0.1", "port": 9090}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Strategy.ChannelPeriod != 20 || cfg.Strategy.TargetPts != 6.0 {
		t.Errorf("strategy not loaded: %+v", cfg.Strategy)
	}
	if cfg.Feed.Symbol != "NQ" {
		t.Errorf("symbol = %q, want NQ", cfg.Feed.Symbol)
	}
	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	// Defaults survive for sections the file omits.
	if cfg.Logging.Level != "info" {
		t.Errorf("logging level = %q, want default info", cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADE_SYMBOL", "MES")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.Symbol != "MES" {
		t.Errorf("symbol = %q, want MES", cfg.Feed.Symbol)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidateRejectsShortWarmup(t *testing.T) {
	cfg := Default()
	cfg.Feed.WarmupBars = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for warmup below channel requirement")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
