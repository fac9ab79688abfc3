// Package database persists signals and session summaries to Postgres.
// Persistence is optional; the trader degrades to journal-only operation
// when no database is configured.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wamppus/don-futures-v1/internal/logging"
	"github.com/wamppus/don-futures-v1/internal/strategy"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	action      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	entry_type  TEXT,
	exit_reason TEXT,
	price       DOUBLE PRECISION,
	pnl_points  DOUBLE PRECISION,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_signals_session ON signals (session_id, created_at);

CREATE TABLE IF NOT EXISTS session_summaries (
	session_id   TEXT PRIMARY KEY,
	symbol       TEXT NOT NULL,
	bars         BIGINT NOT NULL,
	entries      BIGINT NOT NULL,
	exits        BIGINT NOT NULL,
	wins         BIGINT NOT NULL,
	losses       BIGINT NOT NULL,
	pnl_points   DOUBLE PRECISION NOT NULL,
	pnl_currency DOUBLE PRECISION NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL
);
`

// SignalRecord is a persisted signal row.
type SignalRecord struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Symbol    string          `json:"symbol"`
	Action    string          `json:"action"`
	Direction string          `json:"direction"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// SessionSummary is the end-of-session rollup.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	Symbol      string    `json:"symbol"`
	Bars        int64     `json:"bars"`
	Entries     int64     `json:"entries"`
	Exits       int64     `json:"exits"`
	Wins        int64     `json:"wins"`
	Losses      int64     `json:"losses"`
	PnLPoints   float64   `json:"pnl_points"`
	PnLCurrency float64   `json:"pnl_currency"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Repository wraps a pgx pool for signal persistence.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// Connect opens a pool, verifies connectivity, and bootstraps the schema.
func Connect(ctx context.Context, dsn string, logger *logging.Logger) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	logger.Info("database connected")
	return &Repository{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// SaveSignal persists one strategy signal.
func (r *Repository) SaveSignal(ctx context.Context, sessionID, symbol string, sig strategy.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	price := sig.Price
	if sig.Action == strategy.ActionExit {
		price = sig.ExitPrice
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO signals (session_id, symbol, action, direction, entry_type, exit_reason, price, pnl_points, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sessionID, symbol, string(sig.Action), string(sig.Direction),
		string(sig.EntryType), string(sig.ExitReason), price, sig.PnLPoints, payload)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// ListSignals returns the most recent signals for a session, newest first.
func (r *Repository) ListSignals(ctx context.Context, sessionID string, limit int) ([]SignalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, symbol, action, direction, payload, created_at
		FROM signals
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Symbol, &rec.Action,
			&rec.Direction, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSessionSummary upserts the session rollup.
func (r *Repository) SaveSessionSummary(ctx context.Context, s SessionSummary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_summaries
			(session_id, symbol, bars, entries, exits, wins, losses, pnl_points, pnl_currency, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			bars = EXCLUDED.bars,
			entries = EXCLUDED.entries,
			exits = EXCLUDED.exits,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			pnl_points = EXCLUDED.pnl_points,
			pnl_currency = EXCLUDED.pnl_currency,
			ended_at = EXCLUDED.ended_at`,
		s.SessionID, s.Symbol, s.Bars, s.Entries, s.Exits, s.Wins, s.Losses,
		s.PnLPoints, s.PnLCurrency, s.StartedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("upsert session summary: %w", err)
	}
	return nil
}
