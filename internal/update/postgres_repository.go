package update

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

// Create inserts a new update record.
func (r *PostgresRepository) Create(ctx context.Context, u *Update) error {
	if u.Type == "" {
		u.Type = TypeDaily
	}

	query := `
		INSERT INTO updates (team_id, content, type, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, u.TeamID, u.Content, u.Type, u.CreatedBy).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting update: %w", err)
	}

	return nil
}

// ListRecentByTeam returns a team's updates, newest first.
func (r *PostgresRepository) ListRecentByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]Update, error) {
	if limit < 1 {
		limit = 5
	}

	query := `
		SELECT id, team_id, content, type, created_by, created_at
		FROM updates
		WHERE team_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing updates: %w", err)
	}
	defer rows.Close()

	var updates []Update
	for rows.Next() {
		var u Update
		if err := rows.Scan(&u.ID, &u.TeamID, &u.Content, &u.Type, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning update row: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating update rows: %w", err)
	}

	if updates == nil {
		updates = []Update{}
	}

	return updates, nil
}

// CountByTeam returns how many updates a team has posted.
func (r *PostgresRepository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM updates WHERE team_id = $1`, teamID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting updates: %w", err)
	}
	return n, nil
}
