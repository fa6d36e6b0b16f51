package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrMemberNotFound is returned when a member record is not found.
var ErrMemberNotFound = errors.New("member not found")

// Repository provides read and targeted update operations on member profiles.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	GetByDiscordID(ctx context.Context, discordID string) (*Member, error)
	FindByName(ctx context.Context, name string) (*Member, error)
	FindByKeyword(ctx context.Context, keyword string, limit int) ([]Member, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Member, error)
	AssignTeam(ctx context.Context, id uuid.UUID, teamID *uuid.UUID) error
}
