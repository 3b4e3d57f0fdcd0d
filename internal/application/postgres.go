// Package application wires together process-wide infrastructure shared by
// the ingest, encoder and retrigger binaries.
package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"maprandovideos.io/videos/internal/config"
)

var (
	dbOpenBackoffBase  = 1 * time.Second
	dbOpenBackoffScale = 1.618
)

// OpenDBPoolWithRetry initializes a PostgreSQL connection pool, retrying with
// golden-ratio backoff until conf.DatabaseRetries attempts are exhausted.
func OpenDBPoolWithRetry(ctx context.Context, conf config.Config) (*pgxpool.Pool, error) {
	retries := conf.DatabaseRetries
	if retries <= 0 {
		retries = 10
	}

	cfg, err := pgxpool.ParseConfig(conf.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	var pool *pgxpool.Pool
	var lastErr error
	for i := 0; i < retries; i++ {
		if pool, err = pgxpool.NewWithConfig(ctx, cfg); err == nil {
			break
		}
		lastErr = err
		sleepBackoff(i)
	}
	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, lastErr)
	}

	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		lastErr = err
		sleepBackoff(i)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to ping database after %d attempts: %w", retries, lastErr)
}

func sleepBackoff(attempt int) {
	backoff := time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(attempt)))
	time.Sleep(backoff)
}
