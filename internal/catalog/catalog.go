package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/model"
)

// Catalog is a Postgres-backed index of promoted snapshots.
type Catalog struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect creates the connection pool and verifies it.
func Connect(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Catalog{pool: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (c *Catalog) Close() {
	c.pool.Close()
}

// EnsureSchema creates the snapshot table when missing.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS universe_snapshots (
			id               UUID PRIMARY KEY,
			asof             TIMESTAMPTZ NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL,
			finished_at      TIMESTAMPTZ NOT NULL,
			raw_count        BIGINT NOT NULL,
			normalized_count BIGINT NOT NULL,
			skipped_count    BIGINT NOT NULL,
			path             TEXT NOT NULL,
			manifest         JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create universe_snapshots: %w", err)
	}
	return nil
}

// RecordSnapshot inserts one promoted snapshot. Re-recording the same
// manifest id is a no-op, so re-running registration is idempotent.
func (c *Catalog) RecordSnapshot(ctx context.Context, m *model.Manifest, path string) error {
	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	ct, err := c.pool.Exec(ctx, `
		INSERT INTO universe_snapshots
			(id, asof, started_at, finished_at, raw_count, normalized_count, skipped_count, path, manifest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.AsOf, m.StartedAt, m.FinishedAt, m.RawCount, m.NormalizedCount, m.SkippedCount, path, manifestJSON)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if ct.RowsAffected() == 0 {
		c.logger.Debug("snapshot already cataloged", "id", m.ID)
	} else {
		c.logger.Info("snapshot cataloged", "id", m.ID, "path", path)
	}
	return nil
}
