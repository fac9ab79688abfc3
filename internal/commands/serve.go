package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wamppus/don-futures-v1/internal/api"
	"github.com/wamppus/don-futures-v1/internal/cache"
	"github.com/wamppus/don-futures-v1/internal/database"
	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the API without running a trader",
	Long: `Runs the HTTP/WebSocket API standalone, reading live state from Redis
and signal history from the database. A shadow session in another
process keeps both fresh.

Examples:
  don-futures serve
  don-futures serve --config config.json`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// cacheSource serves status snapshots written to Redis by a trader in
// another process.
type cacheSource struct {
	cache  *cache.Cache
	symbol string
}

func (s *cacheSource) Status() strategy.Status {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	status, _ := s.cache.Status(ctx, s.symbol)
	return status
}

func (s *cacheSource) SessionID() string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	id, _ := s.cache.SessionID(ctx)
	return id
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	liveCache := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	defer liveCache.Close()
	if !liveCache.Enabled() {
		return fmt.Errorf("serve mode needs Redis: set REDIS_ADDR or redis.addr")
	}

	var repo *database.Repository
	if cfg.Database.URL != "" {
		if repo, err = database.Connect(ctx, cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer repo.Close()
	}

	// No trader publishes in this process, so no bus: the API serves REST
	// only and /ws is not registered.
	source := &cacheSource{cache: liveCache, symbol: cfg.Feed.Symbol}
	server := api.NewServer(cfg, source, repo, nil, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
