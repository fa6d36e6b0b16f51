package roleview

import (
	"fmt"
	"strings"

	"github.com/cohortlabs/oracle/internal/command"
	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/resource"
	"github.com/cohortlabs/oracle/internal/stage"
	"github.com/cohortlabs/oracle/internal/update"
)

// Input is the unfiltered data gathered for one request.
type Input struct {
	Team      TeamContext
	Updates   []update.Update
	Profile   *member.Member
	People    []member.Member
	Resources []resource.Resource
	Stage     *stage.Analysis
	Command   *command.Result
}

// Assembly is the filtered context handed to the response generator.
type Assembly struct {
	Context string
	People  []member.Member
}

// Assemble merges team context, profile, people, resources and any command
// outcome into one context string, filtered through the view for role.
func Assemble(role string, in Input) Assembly {
	view := For(role)
	people := view.FilterPeople(in.People)

	var sections []string
	addSection := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", title, body))
	}

	if in.Stage != nil {
		addSection("Detected stage", fmt.Sprintf("%s (confidence %.2f). %s", in.Stage.Stage, in.Stage.Confidence, in.Stage.Reasoning))
	}
	addSection("Team", view.FilterTeam(in.Team))
	addSection("Recent updates", view.FilterUpdates(in.Updates, in.Team.UpdateCount))
	addSection("Requester profile", view.FilterProfile(in.Profile))
	addSection("People who can help", describePeople(people))
	addSection("Recommended resources", describeResources(in.Resources))
	if in.Command != nil && in.Command.Executed {
		addSection("Action taken", in.Command.Message)
	}

	return Assembly{
		Context: strings.Join(sections, "\n\n"),
		People:  people,
	}
}

func describePeople(people []member.Member) string {
	var b strings.Builder
	for _, p := range people {
		fmt.Fprintf(&b, "- %s (%s)%s\n", p.Name, p.Role, skillSuffix(p.Skills))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeResources(res []resource.Resource) string {
	var b strings.Builder
	for _, r := range res {
		fmt.Fprintf(&b, "- %s [%s] %s - %s\n", r.Title, r.Type, r.URL, r.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
