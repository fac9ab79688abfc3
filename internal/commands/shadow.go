package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wamppus/don-futures-v1/internal/api"
	"github.com/wamppus/don-futures-v1/internal/cache"
	"github.com/wamppus/don-futures-v1/internal/database"
	"github.com/wamppus/don-futures-v1/internal/events"
	"github.com/wamppus/don-futures-v1/internal/shadow"
)

var (
	shadowNoAPI    bool
	shadowSymbol   string
	shadowInterval int
)

var shadowCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Run the strategy against live data without sending orders",
	Long: `Runs a shadow session: warm up the channel from historical bars, then
ingest live quotes, synthesize bars, and log every signal the strategy
would have traded. No orders are placed.

Examples:
  don-futures shadow
  don-futures shadow --config config.json
  don-futures shadow --no-api`,
	RunE: runShadow,
}

func init() {
	shadowCmd.Flags().BoolVar(&shadowNoAPI, "no-api", false, "disable the HTTP/WebSocket API")
	shadowCmd.Flags().StringVar(&shadowSymbol, "symbol", "", "contract symbol override (e.g. ES)")
	shadowCmd.Flags().IntVar(&shadowInterval, "interval", 0, "bar interval in minutes, overrides config")
	rootCmd.AddCommand(shadowCmd)
}

func runShadow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if shadowSymbol != "" {
		cfg.Feed.Symbol = shadowSymbol
	}
	if shadowInterval > 0 {
		cfg.Feed.IntervalMinutes = shadowInterval
	}
	if cfg.Feed.Username == "" || cfg.Feed.APIKey == "" {
		return fmt.Errorf("shadow mode needs PROJECTX_USERNAME and PROJECTX_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()

	var repo *database.Repository
	if cfg.Database.URL != "" {
		if repo, err = database.Connect(ctx, cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer repo.Close()
	} else {
		logger.Info("no database configured, signals stay in journal only")
	}

	liveCache := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	defer liveCache.Close()

	feedLogger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "feed").Logger()
	trader, err := shadow.New(cfg, bus, repo, liveCache, feedLogger, logger)
	if err != nil {
		return err
	}

	if err := trader.Warmup(ctx); err != nil {
		return err
	}

	if !shadowNoAPI {
		server := api.NewServer(cfg, trader, repo, bus, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("api server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	return trader.Run(ctx)
}
