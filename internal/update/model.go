package update

import (
	"time"

	"github.com/google/uuid"
)

// Update types.
const (
	TypeDaily         = "daily"
	TypeMilestone     = "milestone"
	TypeMentorMeeting = "mentor_meeting"
)

// MaxContentLength is the longest update body the platform accepts.
const MaxContentLength = 5000

// Update represents a row in the updates table.
type Update struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Content   string
	Type      string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}
