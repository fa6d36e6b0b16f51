package member

import (
	"time"

	"github.com/google/uuid"
)

// Roles a member can hold in the community.
const (
	RoleBuilder = "builder"
	RoleMentor  = "mentor"
	RoleLead    = "lead"
	RoleGuest   = "guest"
)

// Roles lists every valid role.
var Roles = []string{RoleBuilder, RoleMentor, RoleLead, RoleGuest}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Member represents a row in the profiles table.
type Member struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Skills          []string   `json:"skills"`
	HelpNeeded      []string   `json:"help_needed"`
	ExperienceLevel string     `json:"experience_level"`
	TeamID          *uuid.UUID `json:"team_id"`
	Bio             string     `json:"bio"`
	DiscordID       *string    `json:"-"`
	CreatedAt       time.Time  `json:"-"`
}

// TopSkill returns the member's first declared skill, or "" if none.
func (m *Member) TopSkill() string {
	if m == nil || len(m.Skills) == 0 {
		return ""
	}
	return m.Skills[0]
}
