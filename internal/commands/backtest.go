package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wamppus/don-futures-v1/internal/backtest"
)

var (
	backtestDataFile    string
	backtestResampleMin int
	backtestSlippage    float64
	backtestYears       int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical CSV bars through the strategy",
	Long: `Replays a CSV file of bars through a fresh strategy instance and prints
trade statistics.

The CSV needs a header row of timestamp,open,high,low,close[,volume].
1-minute data can be resampled to the trading interval with --resample.

Examples:
  don-futures backtest --data es_5min.csv
  don-futures backtest --data es_1min.csv --resample 5
  don-futures backtest --data es_5min.csv --slippage 0.25`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestDataFile, "data", "", "CSV file of historical bars")
	backtestCmd.Flags().IntVar(&backtestResampleMin, "resample", 1, "aggregate 1-minute input to N-minute bars")
	backtestCmd.Flags().Float64Var(&backtestSlippage, "slippage", 0, "points deducted per trade")
	backtestCmd.Flags().IntVar(&backtestYears, "years", 0, "only replay the last N years of data")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	dataFile := backtestDataFile
	if dataFile == "" {
		dataFile = cfg.Backtest.DataFile
	}
	if dataFile == "" {
		return fmt.Errorf("no data file: pass --data or set backtest.data_file")
	}

	slippage := backtestSlippage
	if slippage == 0 {
		slippage = cfg.Backtest.SlippagePts
	}

	bars, err := backtest.LoadCSV(dataFile)
	if err != nil {
		return err
	}
	if backtestYears > 0 {
		bars = backtest.TailYears(bars, backtestYears)
	}
	if backtestResampleMin > 1 {
		bars = backtest.Resample(bars, backtestResampleMin)
	}

	btLogger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "backtest").Logger()
	runner := backtest.NewRunner(cfg.Strategy, slippage, btLogger)
	result, err := runner.Run(bars)
	if err != nil {
		return err
	}

	fmt.Print(result.Report())
	return nil
}
