// Package audit persists an append-only trail of privileged actions.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one recorded action.
type Event struct {
	ID        int64          `json:"id"`
	TenantID  int64          `json:"tenant_id"`
	ActorID   int64          `json:"actor_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  int64          `json:"entity_id"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Recorder writes audit events. Failures are logged, never propagated:
// an audit outage must not fail the action being audited.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// Record appends one event to the trail.
func (r *Recorder) Record(ctx context.Context, tenantID, actorID int64, action, entity string, entityID int64, detail map[string]any) {
	var payload []byte
	if detail != nil {
		var err error
		if payload, err = json.Marshal(detail); err != nil {
			r.logger.Warn("audit detail marshal", slog.Any("error", err))
			payload = nil
		}
	}
	const query = `
		INSERT INTO audit_events (tenant_id, actor_id, action, entity, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`
	if _, err := r.pool.Exec(ctx, query, tenantID, actorID, action, entity, entityID, payload); err != nil {
		r.logger.Warn("audit record",
			slog.String("action", action),
			slog.String("entity", entity),
			slog.Any("error", err),
		)
	}
}

// List returns a tenant's trail, newest first.
func (r *Recorder) List(ctx context.Context, tenantID int64, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, tenant_id, actor_id, action, entity, entity_id, detail, created_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var detail []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
