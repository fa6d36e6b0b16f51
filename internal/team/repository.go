package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateTeamName is returned when a team with the same name already exists.
var ErrDuplicateTeamName = errors.New("team name already exists")

// ErrInvalidStage is returned when a team is written with an unknown stage.
var ErrInvalidStage = errors.New("invalid team stage")

// Repository provides operations on the teams and team_status tables.
type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetByName(ctx context.Context, name string) (*Team, error)
	GetStatus(ctx context.Context, teamID uuid.UUID) (*Status, error)
	UpsertStatus(ctx context.Context, teamID uuid.UUID, status string) (*Status, error)
}
