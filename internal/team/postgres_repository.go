package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cohortlabs/oracle/internal/stage"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const teamColumns = `id, name, description, stage, tags, mentor_id, archived, created_at, updated_at`

// Create inserts a new team record. Teams start in the ideation stage unless
// told otherwise.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	if t.Stage == "" {
		t.Stage = stage.Ideation
	}
	if !stage.Valid(string(t.Stage)) {
		return ErrInvalidStage
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	query := `
		INSERT INTO teams (name, description, stage, tags, mentor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, archived, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, t.Name, t.Description, string(t.Stage), t.Tags, t.MentorID).
		Scan(&t.ID, &t.Archived, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTeamName
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByName retrieves a single non-archived team by case-insensitive name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE lower(name) = lower($1) AND NOT archived`
	return r.scanOne(ctx, query, name)
}

// GetStatus returns the latest status line for a team.
func (r *PostgresRepository) GetStatus(ctx context.Context, teamID uuid.UUID) (*Status, error) {
	query := `SELECT team_id, status, updated_at FROM team_status WHERE team_id = $1`

	var s Status
	err := r.pool.QueryRow(ctx, query, teamID).Scan(&s.TeamID, &s.Status, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team status: %w", err)
	}
	return &s, nil
}

// UpsertStatus writes the team's status line and refreshes its timestamp.
func (r *PostgresRepository) UpsertStatus(ctx context.Context, teamID uuid.UUID, status string) (*Status, error) {
	query := `
		INSERT INTO team_status (team_id, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (team_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING team_id, status, updated_at`

	var s Status
	err := r.pool.QueryRow(ctx, query, teamID, status).Scan(&s.TeamID, &s.Status, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("upserting team status: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Team, error) {
	var (
		t        Team
		stageStr string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.Description, &stageStr, &t.Tags,
		&t.MentorID, &t.Archived, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("scanning team row: %w", err)
	}

	t.Stage = stage.Stage(stageStr)
	if !stage.Valid(stageStr) {
		t.Stage = stage.Ideation
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}
