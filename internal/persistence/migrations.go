package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// The gateway owns a single local table; everything else lives upstream.
const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGSERIAL PRIMARY KEY,
	actor       TEXT NOT NULL,
	actor_role  TEXT NOT NULL,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_occurred_at_idx ON audit_events (occurred_at);
`

// RunMigrations applies the audit schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Info("no postgres pool available; skipping migrations")
		return nil
	}
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return err
	}
	logger.Info("audit schema applied")
	return nil
}
