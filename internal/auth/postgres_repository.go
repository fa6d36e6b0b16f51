package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements ClientRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ClientRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) ClientRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new API client record.
func (r *PostgresRepository) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO api_clients (name, key_prefix, key_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := r.pool.QueryRow(ctx, query, c.Name, c.KeyPrefix, c.KeyHash).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("inserting api client: %w", err)
	}
	return nil
}

// FindByPrefix returns active (non-revoked) clients matching the given key prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Client, error) {
	query := `
		SELECT id, name, key_prefix, key_hash, created_at, revoked_at
		FROM api_clients
		WHERE key_prefix = $1 AND revoked_at IS NULL`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding api clients by prefix: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.KeyPrefix, &c.KeyHash, &c.CreatedAt, &c.RevokedAt); err != nil {
			return nil, fmt.Errorf("scanning api client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api client rows: %w", err)
	}

	return clients, nil
}

// Revoke sets revoked_at on a client. Returns ErrClientNotFound if the client
// does not exist, and ErrClientRevoked if already revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE api_clients SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoking api client: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM api_clients WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking api client existence: %w", err)
		}
		if !exists {
			return ErrClientNotFound
		}
		return ErrClientRevoked
	}

	return nil
}

// CountAll returns the total number of clients (including revoked).
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM api_clients").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting api clients: %w", err)
	}
	return count, nil
}
