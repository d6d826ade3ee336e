package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Probe verifies that a PostgreSQL DSN is actually reachable before the rest
// of the stack commits to the SQL backend. It opens a small pgx pool, pings
// it, and tears it down; a failure here is the signal to degrade to the
// filesystem store instead of serving errors all day.
func Probe(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("database DSN is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Minute

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(probeCtx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(probeCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
