package update

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides read and insert operations on the updates table.
// Updates are immutable once written.
type Repository interface {
	Create(ctx context.Context, u *Update) error
	ListRecentByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]Update, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
}
