package member

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

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

const memberColumns = `id, name, role, skills, help_needed, experience_level, team_id, bio, discord_id, created_at`

// GetByID retrieves a single member by UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	return r.scanOne(ctx, `SELECT `+memberColumns+` FROM profiles WHERE id = $1`, id)
}

// GetByDiscordID retrieves the member linked to a chat-platform account.
func (r *PostgresRepository) GetByDiscordID(ctx context.Context, discordID string) (*Member, error) {
	return r.scanOne(ctx, `SELECT `+memberColumns+` FROM profiles WHERE discord_id = $1`, discordID)
}

// FindByName performs a fuzzy, case-insensitive name lookup. An exact match
// wins; otherwise the shortest name containing the input is returned.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*Member, error) {
	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "@"))
	if name == "" {
		return nil, ErrMemberNotFound
	}

	query := `
		SELECT ` + memberColumns + `
		FROM profiles
		WHERE name ILIKE $1
		ORDER BY (lower(name) = lower($2)) DESC, length(name) ASC
		LIMIT 1`

	return r.scanOne(ctx, query, "%"+escapeLike(name)+"%", name)
}

// FindByKeyword returns members with a skill or help-needed topic that
// contains the keyword as a whole word or phrase. Punctuation is ignored on
// both sides, so "next js" matches a "Next.js" skill while "ai" does not
// match "email".
func (r *PostgresRepository) FindByKeyword(ctx context.Context, keyword string, limit int) ([]Member, error) {
	if limit < 1 {
		limit = 5
	}
	term := stage.NormalizeTerm(keyword)
	if term == "" {
		return []Member{}, nil
	}

	query := `
		SELECT ` + memberColumns + `
		FROM profiles
		WHERE role <> 'guest'
		  AND (EXISTS (SELECT 1 FROM unnest(skills) s
		               WHERE regexp_replace(lower(s), '[^[:alnum:]]+', ' ', 'g') ~ $1)
		    OR EXISTS (SELECT 1 FROM unnest(help_needed) h
		               WHERE regexp_replace(lower(h), '[^[:alnum:]]+', ' ', 'g') ~ $1))
		ORDER BY name ASC
		LIMIT $2`

	return r.scanMany(ctx, query, wordPattern(term), limit)
}

// wordPattern anchors a normalized term on word boundaries.
func wordPattern(term string) string {
	return `(^| )` + regexp.QuoteMeta(term) + `( |$)`
}

// ListByTeam returns every member of a team ordered by name.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM profiles WHERE team_id = $1 ORDER BY name ASC`
	return r.scanMany(ctx, query, teamID)
}

// AssignTeam sets a member's team. A nil teamID removes the member from
// their team.
func (r *PostgresRepository) AssignTeam(ctx context.Context, id uuid.UUID, teamID *uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE profiles SET team_id = $1, updated_at = NOW() WHERE id = $2`, teamID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("assigning member to unknown team: %w", err)
		}
		return fmt.Errorf("assigning member team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("scanning member row: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	if members == nil {
		members = []Member{}
	}
	return members, nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.Name, &m.Role, &m.Skills, &m.HelpNeeded,
		&m.ExperienceLevel, &m.TeamID, &m.Bio, &m.DiscordID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Skills == nil {
		m.Skills = []string{}
	}
	if m.HelpNeeded == nil {
		m.HelpNeeded = []string{}
	}
	return &m, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
