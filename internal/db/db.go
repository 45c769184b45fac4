// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-averages/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool with the API's prepared
// statements registered on every connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	return open(ctx, cfg, true)
}

// Connect creates and validates a pool without prepared statements, for
// loading and schema setup before the archive tables exist.
func Connect(ctx context.Context, cfg *config.Config) (*Pool, error) {
	return open(ctx, cfg, false)
}

func open(ctx context.Context, cfg *config.Config, prepare bool) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	if prepare {
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return registerPreparedStatements(ctx, conn)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "SELECT 1").Scan(&n)
}

// Statements lists the prepared statements registered on every connection.
// The archive schema must exist before the pool connects.
var Statements = map[string]string{
	// API: archive index (materialized view)
	"archive_sources": `SELECT COALESCE(json_agg(row_to_json(i) ORDER BY i.source), '[]'::json)
		FROM mv_archive_index i`,

	// API: records of one source, optionally one kind
	"archive_records": `SELECT json_agg(r.body ORDER BY r.kind DESC, r.file, r.table_name, r.row)
		FROM archive_records r
		WHERE r.source = $1 AND ($2 = '' OR r.kind = $2)`,

	// API: one record
	"archive_record": "SELECT body FROM archive_records WHERE source = $1 AND ref = $2",
}

// registerPreparedStatements registers all statements the API uses.
// Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
