// Package database opens the PostgreSQL pool and owns the schema.
package database

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
)

// Connect opens a pool on databaseURL and checks that the server answers.
// Queries are traced and pool statistics exported through the global
// OpenTelemetry providers, so telemetry must be set up first.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithTrimSQLInSpanName())

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := otelpgx.RecordStats(pool); err != nil {
		logger.Log.Warn().Err(err).Msg("Pool statistics unavailable")
	}

	logger.Log.Debug().
		Int32("max_conns", cfg.MaxConns).
		Str("database", cfg.ConnConfig.Database).
		Msg("Database pool ready")

	return pool, nil
}
