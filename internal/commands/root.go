// Package commands defines the CLI surface: shadow trading, backtesting,
// and the standalone API server.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/wamppus/don-futures-v1/config"
	"github.com/wamppus/don-futures-v1/internal/logging"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "don-futures",
	Short: "Donchian channel futures strategy",
	Long: `Donchian channel strategy for ES futures, built around the failed-test
entry: fade a channel break once price closes back inside the band.

The strategy runs in three modes:
  shadow    trade live data without sending orders
  backtest  replay historical CSV bars
  serve     run the API server against a shadow session`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// loadConfig builds the runtime configuration and the process logger shared
// by all subcommands.
func loadConfig() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.JSONFormat,
		Component:  "don-futures",
	})
	logging.SetDefault(logger)
	return cfg, logger, nil
}
