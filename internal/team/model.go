package team

import (
	"time"

	"github.com/google/uuid"

	"github.com/cohortlabs/oracle/internal/stage"
)

// Team represents a row in the teams table.
type Team struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Stage       stage.Stage `json:"stage"`
	Tags        []string    `json:"tags"`
	MentorID    *uuid.UUID  `json:"mentorId"`
	Archived    bool        `json:"archived"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Status represents a row in the team_status table: the team's latest
// free-text status line.
type Status struct {
	TeamID    uuid.UUID `json:"teamId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
