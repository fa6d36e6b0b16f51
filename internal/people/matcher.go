package people

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/stage"
)

// MaxMatches caps how many people a single answer mentions.
const MaxMatches = 5

// Vocabulary is the technical keyword set the matcher looks for in queries.
var Vocabulary = []string{
	"react", "next js", "typescript", "javascript", "python", "node", "golang", "rust",
	"swift", "kotlin", "flutter", "django", "fastapi", "postgres", "sql", "supabase",
	"firebase", "mongodb", "aws", "docker", "kubernetes", "devops", "ai", "ml",
	"llm", "data", "design", "figma", "ui", "ux", "frontend", "backend", "mobile",
	"marketing", "sales", "fundraising", "pitch", "product", "growth", "security",
	"blockchain", "web3",
}

// HelpSignals are phrases that mark a query as a request for help.
var HelpSignals = []string{"help", "stuck", "guidance", "struggling", "advice", "mentor"}

// Finder looks up members by skill or help-needed keyword.
type Finder interface {
	FindByKeyword(ctx context.Context, keyword string, limit int) ([]member.Member, error)
}

// Matcher finds community members relevant to a query.
type Matcher struct {
	finder Finder
}

// NewMatcher creates a Matcher backed by the given Finder.
func NewMatcher(finder Finder) *Matcher {
	return &Matcher{finder: finder}
}

// Match returns up to MaxMatches members whose skills or needs overlap the
// query. Guests never see other members: the result is empty before any
// lookup happens.
func (m *Matcher) Match(ctx context.Context, query string, profile *member.Member, role string) ([]member.Member, error) {
	if role == member.RoleGuest || !member.ValidRole(role) {
		return []member.Member{}, nil
	}

	var keywords []string
	for _, kw := range Vocabulary {
		if stage.ContainsTerm(query, kw) {
			keywords = append(keywords, kw)
		}
	}
	if profile != nil && isHelpSeeking(query) {
		keywords = append(keywords, profile.HelpNeeded...)
	}

	var self uuid.UUID
	if profile != nil {
		self = profile.ID
	}

	matches := []member.Member{}
	seen := make(map[string]bool)
	for _, kw := range keywords {
		if len(matches) >= MaxMatches {
			break
		}
		if strings.TrimSpace(kw) == "" {
			continue
		}

		found, err := m.finder.FindByKeyword(ctx, kw, MaxMatches)
		if err != nil {
			return nil, fmt.Errorf("finding members for %q: %w", kw, err)
		}

		for _, f := range found {
			key := strings.ToLower(strings.TrimSpace(f.Name))
			if seen[key] || (self != uuid.Nil && f.ID == self) || f.Role == member.RoleGuest {
				continue
			}
			seen[key] = true
			matches = append(matches, f)
			if len(matches) >= MaxMatches {
				break
			}
		}
	}

	return matches, nil
}

func isHelpSeeking(query string) bool {
	for _, s := range HelpSignals {
		if stage.ContainsTerm(query, s) {
			return true
		}
	}
	return false
}
