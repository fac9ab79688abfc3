// Package cache mirrors live trader state into Redis so the API and other
// processes can read it without touching the trader. Redis is optional; all
// operations become no-ops when the connection is absent or lost.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wamppus/don-futures-v1/internal/logging"
	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const (
	keyPrefix  = "donfutures"
	stateTTL   = 2 * time.Minute
	sessionTTL = 24 * time.Hour
)

// Cache is a thin Redis wrapper. A nil Cache (or one whose backend went
// away) is safe to call.
type Cache struct {
	client  *redis.Client
	logger  *logging.Logger
	enabled bool
}

// Connect dials Redis. On failure it returns a disabled cache and logs a
// warning rather than failing the trader.
func Connect(ctx context.Context, addr, password string, db int, logger *logging.Logger) *Cache {
	if addr == "" {
		return &Cache{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, live state cache disabled", "error", err)
		_ = client.Close()
		return &Cache{logger: logger}
	}

	logger.Info("redis connected", "addr", addr)
	return &Cache{client: client, logger: logger, enabled: true}
}

// Enabled reports whether the cache has a live backend.
func (c *Cache) Enabled() bool { return c != nil && c.enabled }

func (c *Cache) set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) get(ctx context.Context, key string, v interface{}) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetLastBar stores the most recent bar for a symbol.
func (c *Cache) SetLastBar(ctx context.Context, symbol string, bar strategy.Bar) {
	c.set(ctx, fmt.Sprintf("%s:bar:%s", keyPrefix, symbol), bar, stateTTL)
}

// LastBar retrieves the most recent bar for a symbol.
func (c *Cache) LastBar(ctx context.Context, symbol string) (strategy.Bar, bool) {
	var bar strategy.Bar
	ok := c.get(ctx, fmt.Sprintf("%s:bar:%s", keyPrefix, symbol), &bar)
	return bar, ok
}

// SetStatus stores the engine status snapshot.
func (c *Cache) SetStatus(ctx context.Context, symbol string, status strategy.Status) {
	c.set(ctx, fmt.Sprintf("%s:status:%s", keyPrefix, symbol), status, stateTTL)
}

// Status retrieves the engine status snapshot.
func (c *Cache) Status(ctx context.Context, symbol string) (strategy.Status, bool) {
	var status strategy.Status
	ok := c.get(ctx, fmt.Sprintf("%s:status:%s", keyPrefix, symbol), &status)
	return status, ok
}

// SetSessionID records the currently running session.
func (c *Cache) SetSessionID(ctx context.Context, id string) {
	c.set(ctx, keyPrefix+":session", id, sessionTTL)
}

// SessionID returns the currently running session, if recorded.
func (c *Cache) SessionID(ctx context.Context) (string, bool) {
	var id string
	ok := c.get(ctx, keyPrefix+":session", &id)
	return id, ok
}

// Close shuts the Redis connection.
func (c *Cache) Close() {
	if c.Enabled() {
		_ = c.client.Close()
	}
}
