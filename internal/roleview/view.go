// Package roleview decides how much of the available data a responder may
// see, as a function of the requester's role. Each role has one View; the
// guest view has no code path that reads personal fields.
package roleview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/team"
	"github.com/cohortlabs/oracle/internal/update"
)

// TeamContext is everything known about the requester's team.
type TeamContext struct {
	Team        *team.Team
	Status      *team.Status
	Roster      []member.Member
	UpdateCount int
}

// View filters context for one role.
type View interface {
	Role() string
	FilterTeam(tc TeamContext) string
	FilterPeople(people []member.Member) []member.Member
	FilterUpdates(updates []update.Update, total int) string
	FilterProfile(profile *member.Member) string
}

// For returns the view for role. Unknown roles get the guest view.
func For(role string) View {
	switch role {
	case member.RoleBuilder:
		return builderView{}
	case member.RoleMentor:
		return mentorView{}
	case member.RoleLead:
		return leadView{}
	default:
		return guestView{}
	}
}

// guestView exposes aggregate activity only.
type guestView struct{}

func (guestView) Role() string { return member.RoleGuest }

func (guestView) FilterTeam(tc TeamContext) string {
	if tc.Team == nil {
		return ""
	}
	return fmt.Sprintf("A cohort team in the %s stage with %d posted updates.", tc.Team.Stage, tc.UpdateCount)
}

func (guestView) FilterPeople([]member.Member) []member.Member {
	return []member.Member{}
}

func (guestView) FilterUpdates(updates []update.Update, total int) string {
	if total < len(updates) {
		total = len(updates)
	}
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("Recent activity: %d updates.", total)
}

func (guestView) FilterProfile(*member.Member) string {
	return ""
}

// builderView shows the builder's own team at a glance.
type builderView struct{}

const builderUpdateLimit = 2
const builderUpdateChars = 160

func (builderView) Role() string { return member.RoleBuilder }

func (builderView) FilterTeam(tc TeamContext) string {
	if tc.Team == nil {
		return ""
	}
	s := fmt.Sprintf("Team: %s (stage: %s)", tc.Team.Name, tc.Team.Stage)
	if tc.Status != nil && tc.Status.Status != "" {
		s += fmt.Sprintf("\nCurrent status: %s", tc.Status.Status)
	}
	return s
}

func (builderView) FilterPeople(people []member.Member) []member.Member {
	return people
}

func (builderView) FilterUpdates(updates []update.Update, _ int) string {
	var b strings.Builder
	for i, u := range updates {
		if i == builderUpdateLimit {
			break
		}
		fmt.Fprintf(&b, "- %s\n", clip(u.Content, builderUpdateChars))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (builderView) FilterProfile(p *member.Member) string {
	return describeProfile(p)
}

// mentorView shows the full team record, roster and recent updates.
type mentorView struct{}

const mentorUpdateLimit = 3

func (mentorView) Role() string { return member.RoleMentor }

func (mentorView) FilterTeam(tc TeamContext) string {
	if tc.Team == nil {
		return ""
	}
	t := tc.Team
	var b strings.Builder
	fmt.Fprintf(&b, "Team: %s\nStage: %s\n", t.Name, t.Stage)
	if t.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", t.Description)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	if tc.Status != nil && tc.Status.Status != "" {
		fmt.Fprintf(&b, "Current status: %s (as of %s)\n", tc.Status.Status, tc.Status.UpdatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Total updates: %d\n", tc.UpdateCount)
	if len(tc.Roster) > 0 {
		b.WriteString("Members:\n")
		for _, m := range tc.Roster {
			fmt.Fprintf(&b, "- %s (%s)%s\n", m.Name, m.Role, skillSuffix(m.Skills))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (mentorView) FilterPeople(people []member.Member) []member.Member {
	return people
}

func (mentorView) FilterUpdates(updates []update.Update, _ int) string {
	var b strings.Builder
	for i, u := range updates {
		if i == mentorUpdateLimit {
			break
		}
		fmt.Fprintf(&b, "- [%s, %s] %s\n", u.Type, u.CreatedAt.Format("2006-01-02"), u.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (mentorView) FilterProfile(p *member.Member) string {
	return describeProfile(p)
}

// leadView passes the raw records through.
type leadView struct{}

func (leadView) Role() string { return member.RoleLead }

func (leadView) FilterTeam(tc TeamContext) string {
	if tc.Team == nil {
		return ""
	}
	record := struct {
		Team        *team.Team      `json:"team"`
		Status      *team.Status    `json:"status,omitempty"`
		Roster      []member.Member `json:"roster"`
		UpdateCount int             `json:"updateCount"`
	}{tc.Team, tc.Status, tc.Roster, tc.UpdateCount}
	return rawJSON(record)
}

func (leadView) FilterPeople(people []member.Member) []member.Member {
	return people
}

func (leadView) FilterUpdates(updates []update.Update, _ int) string {
	if len(updates) == 0 {
		return ""
	}
	return rawJSON(updates)
}

func (leadView) FilterProfile(p *member.Member) string {
	if p == nil {
		return ""
	}
	return rawJSON(p)
}

func describeProfile(p *member.Member) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nRole: %s\n", p.Name, p.Role)
	if p.ExperienceLevel != "" {
		fmt.Fprintf(&b, "Experience: %s\n", p.ExperienceLevel)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}
	if len(p.HelpNeeded) > 0 {
		fmt.Fprintf(&b, "Needs help with: %s\n", strings.Join(p.HelpNeeded, ", "))
	}
	if p.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	}
	return strings.TrimRight(b.String(), "\n")
}

func skillSuffix(skills []string) string {
	if len(skills) == 0 {
		return ""
	}
	return " - " + strings.Join(skills, ", ")
}

func rawJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(out)
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
