package oraclelog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository appends interaction log entries.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Append inserts one log entry.
func (r *PostgresRepository) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO oracle_logs (request_id, user_id, team_id, role, query, answer, detected_stage,
		                         confidence, sources, action, fallback_kind, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		e.RequestID,
		e.UserID,
		e.TeamID,
		e.Role,
		e.Query,
		e.Answer,
		e.DetectedStage,
		e.Confidence,
		e.Sources,
		e.Action,
		e.FallbackKind,
		e.Duration.Milliseconds(),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending oracle log: %w", err)
	}

	return nil
}
