package message

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a message. New messages are always unread.
func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, team_id, is_broadcast, broadcast_type, target_role, content, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		RETURNING id, read, created_at`

	err := r.pool.QueryRow(ctx, query,
		m.SenderID,
		m.ReceiverID,
		m.TeamID,
		m.IsBroadcast,
		m.BroadcastType,
		m.TargetRole,
		m.Content,
	).Scan(&m.ID, &m.Read, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}
