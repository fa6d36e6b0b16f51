package people_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/people"
)

// --- Mock Finder ---

type mockFinder struct {
	mu       sync.Mutex
	calls    []string
	findByFn func(ctx context.Context, keyword string, limit int) ([]member.Member, error)
}

func (m *mockFinder) FindByKeyword(ctx context.Context, keyword string, limit int) ([]member.Member, error) {
	m.mu.Lock()
	m.calls = append(m.calls, keyword)
	m.mu.Unlock()
	if m.findByFn != nil {
		return m.findByFn(ctx, keyword, limit)
	}
	return []member.Member{}, nil
}

func builder(name string, skills ...string) member.Member {
	return member.Member{ID: uuid.New(), Name: name, Role: member.RoleBuilder, Skills: skills}
}

// ===== Match =====

func TestMatch_GuestGetsNothingWithoutLookup(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "who knows react and python?", nil, member.RoleGuest)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, finder.calls)
}

func TestMatch_UnknownRoleTreatedAsGuest(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "react", nil, "admin")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, finder.calls)
}

func TestMatch_LooksUpVocabularyKeywords(t *testing.T) {
	t.Parallel()

	ada := builder("Ada", "react")
	finder := &mockFinder{
		findByFn: func(_ context.Context, keyword string, limit int) ([]member.Member, error) {
			assert.Equal(t, people.MaxMatches, limit)
			if keyword == "react" {
				return []member.Member{ada}, nil
			}
			return nil, nil
		},
	}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "Anyone good with React or Docker?", nil, member.RoleBuilder)

	require.NoError(t, err)
	assert.Equal(t, []string{"react", "docker"}, finder.calls)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)
}

func TestMatch_DottedFrameworkName(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{}
	m := people.NewMatcher(finder)

	_, err := m.Match(context.Background(), "any Next.js or Node.js help?", nil, member.RoleBuilder)

	require.NoError(t, err)
	assert.Equal(t, []string{"next js", "node"}, finder.calls)
}

func TestMatch_HelpSeekingAddsProfileTopics(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{}
	m := people.NewMatcher(finder)
	profile := &member.Member{ID: uuid.New(), HelpNeeded: []string{"fundraising", "sql"}}

	_, err := m.Match(context.Background(), "I'm stuck, any advice?", profile, member.RoleBuilder)
	require.NoError(t, err)
	assert.Equal(t, []string{"fundraising", "sql"}, finder.calls)

	finder.calls = nil
	_, err = m.Match(context.Background(), "what is our stage?", profile, member.RoleBuilder)
	require.NoError(t, err)
	assert.Empty(t, finder.calls)
}

func TestMatch_DedupesExcludesSelfAndGuests(t *testing.T) {
	t.Parallel()

	self := builder("Me", "react")
	ada := builder("Ada", "react", "python")
	adaAgain := ada
	adaAgain.Name = "  ADA "
	visitor := member.Member{ID: uuid.New(), Name: "Visitor", Role: member.RoleGuest}

	finder := &mockFinder{
		findByFn: func(_ context.Context, keyword string, _ int) ([]member.Member, error) {
			switch keyword {
			case "react":
				return []member.Member{self, ada, visitor}, nil
			case "python":
				return []member.Member{adaAgain}, nil
			}
			return nil, nil
		},
	}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "react and python", &self, member.RoleMentor)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)
}

func TestMatch_CappedAtMax(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{
		findByFn: func(_ context.Context, keyword string, _ int) ([]member.Member, error) {
			out := make([]member.Member, 0, 4)
			for i := range 4 {
				out = append(out, builder(fmt.Sprintf("%s-%d", keyword, i)))
			}
			return out, nil
		},
	}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "react python docker figma", nil, member.RoleLead)

	require.NoError(t, err)
	assert.Len(t, got, people.MaxMatches)
	assert.Equal(t, []string{"react", "python"}, finder.calls)
}

func TestMatch_FinderError(t *testing.T) {
	t.Parallel()

	finder := &mockFinder{
		findByFn: func(context.Context, string, int) ([]member.Member, error) {
			return nil, errors.New("connection refused")
		},
	}
	m := people.NewMatcher(finder)

	got, err := m.Match(context.Background(), "react", nil, member.RoleBuilder)

	assert.ErrorContains(t, err, "connection refused")
	assert.Nil(t, got)
}
