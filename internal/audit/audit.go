// Package audit records who did what through the gateway. It is an
// optional trail: without a configured database every call is a no-op, so
// the session core never depends on it.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// Event is one recorded admin action.
type Event struct {
	Actor    string
	Role     domain.Role
	Action   string
	Resource string
	Detail   string
	At       time.Time
}

// Recorder persists audit events. Implementations must not fail the
// calling request: recording problems are logged and swallowed.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

// PostgresRecorder writes events to the audit_events table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewRecorder picks the Postgres recorder when a pool is available and
// falls back to the no-op otherwise.
func NewRecorder(pool *pgxpool.Pool, logger *zap.Logger) Recorder {
	if pool == nil {
		return NopRecorder{}
	}
	return &PostgresRecorder{pool: pool, log: logger}
}

// Record inserts one event.
func (r *PostgresRecorder) Record(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (actor, actor_role, action, resource, detail, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.Actor, string(event.Role), event.Action, event.Resource, event.Detail, event.At,
	)
	if err != nil {
		r.log.Warn("audit record failed",
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}
