package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2

	// The gateway only holds small per-principal rows (PIN hashes, the
	// notification inbox, the consent audit trail), so connections are
	// recycled rather than held for bulk work.
	maxConnLifetime = 30 * time.Minute
	maxConnIdleTime = 5 * time.Minute

	pingTimeout = 5 * time.Second
)

// poolLimits normalizes the configured connection bounds. Non-positive
// values fall back to the defaults; minConns never exceeds maxConns.
func poolLimits(maxConns, minConns int32) (int32, int32) {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	if minConns <= 0 {
		minConns = defaultMinConns
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	return maxConns, minConns
}

// NewPool opens a pgx pool sized for the gateway's local footprint and
// verifies connectivity before returning it.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns, cfg.MinConns = poolLimits(maxConns, minConns)
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
