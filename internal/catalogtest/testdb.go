// Package catalogtest bootstraps a scratch Postgres schema for package
// tests via goose, the same migration runner the teacher uses in
// production. Here it is test-only infrastructure: production schema
// migrations are an external collaborator (see the module's SPEC_FULL.md),
// so nothing in this package is imported by any cmd/ binary.
package catalogtest

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Bootstrap applies the catalog schema to dsn and returns a ready pgx pool.
// Tests that need a live database should skip (not fail) when dsn is empty.
func Bootstrap(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalogtest: open: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(schemaFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("catalogtest: set dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "schema"); err != nil {
		return nil, fmt.Errorf("catalogtest: migrate up: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalogtest: open pool: %w", err)
	}
	return pool, nil
}

// Reset drops every row from the catalog tables so successive tests start
// from a clean slate without re-running migrations.
func Reset(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE TABLE
		tech_video_assignment, notable_strat, notable, tech, strat, node, room, area, video, account
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("catalogtest: reset: %w", err)
	}
	return nil
}
