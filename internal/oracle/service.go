package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cohortlabs/oracle/internal/command"
	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/oraclelog"
	"github.com/cohortlabs/oracle/internal/people"
	"github.com/cohortlabs/oracle/internal/resource"
	"github.com/cohortlabs/oracle/internal/roleview"
	"github.com/cohortlabs/oracle/internal/stage"
	"github.com/cohortlabs/oracle/internal/team"
	"github.com/cohortlabs/oracle/internal/update"
)

// recentUpdateLimit is how many updates are loaded per request.
const recentUpdateLimit = 5

// errStepPanic marks a fan-out step that panicked.
var errStepPanic = errors.New("pipeline step panicked")

// goSafe runs fn on g, turning a panic into an error so that it reaches
// Wait instead of killing the process.
func goSafe(g *errgroup.Group, step string, logger *slog.Logger, fn func() error) {
	g.Go(func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("oracle pipeline step panic", "step", step, "panic", rec, "stack", string(debug.Stack()))
				err = fmt.Errorf("%s: %w: %v", step, errStepPanic, rec)
			}
		}()
		return fn()
	})
}

// ContextRequest lets callers opt out of parts of the pipeline. Unset flags
// default to on.
type ContextRequest struct {
	NeedsResources       *bool `json:"needsResources,omitempty"`
	NeedsMentions        *bool `json:"needsMentions,omitempty"`
	NeedsTeamContext     *bool `json:"needsTeamContext,omitempty"`
	NeedsPersonalization *bool `json:"needsPersonalization,omitempty"`
}

func flag(b *bool) bool {
	return b == nil || *b
}

// Request is one Oracle query. It is validated before it reaches the
// Service.
type Request struct {
	RequestID string
	Query     string
	Role      string
	TeamID    *uuid.UUID
	UserID    *uuid.UUID
	Profile   *member.Member
	Context   ContextRequest
}

// Personalization summarizes which profile data shaped the answer.
type Personalization struct {
	ExperienceLevel  string   `json:"experience_level,omitempty"`
	SkillsConsidered []string `json:"skills_considered"`
	HelpTopics       []string `json:"help_topics"`
	TeamStage        string   `json:"team_stage,omitempty"`
}

// Response is the answer plus structured metadata.
type Response struct {
	Answer          string              `json:"answer"`
	Sources         int                 `json:"sources"`
	Confidence      int                 `json:"confidence"`
	DetectedStage   string              `json:"detected_stage,omitempty"`
	StageConfidence float64             `json:"stage_confidence,omitempty"`
	Resources       []resource.Resource `json:"resources,omitempty"`
	Mentions        []string            `json:"mentions,omitempty"`
	NextActions     []string            `json:"next_actions,omitempty"`
	Personalization *Personalization    `json:"personalization,omitempty"`
	Action          *command.Result     `json:"action,omitempty"`
}

// TeamReader loads team records.
type TeamReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error)
	GetStatus(ctx context.Context, teamID uuid.UUID) (*team.Status, error)
}

// UpdateReader loads a team's updates.
type UpdateReader interface {
	ListRecentByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]update.Update, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
}

// MemberReader loads member profiles.
type MemberReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]member.Member, error)
}

// IntentParser turns free text into an action descriptor.
type IntentParser interface {
	Parse(ctx context.Context, text string) *intent.Descriptor
}

// CommandExecutor applies an action descriptor.
type CommandExecutor interface {
	Execute(ctx context.Context, d *intent.Descriptor, scope command.Scope) (*command.Result, error)
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Teams      TeamReader
	Updates    UpdateReader
	Members    MemberReader
	Classifier *stage.Classifier
	Ranker     *resource.Ranker
	Matcher    *people.Matcher
	Parser     IntentParser
	Executor   CommandExecutor
	Responder  *Responder
	Log        oraclelog.Repository
	Taxonomy   *stage.Taxonomy
}

// Service runs the Oracle pipeline. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	deps Deps
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	if deps.Taxonomy == nil {
		deps.Taxonomy = stage.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = stage.NewClassifier(deps.Taxonomy)
	}
	if deps.Ranker == nil {
		deps.Ranker = resource.NewRanker(deps.Taxonomy, nil)
	}
	return &Service{deps: deps}
}

// Handle answers one query. It always returns a response: failures outside
// the language-model call produce a low-confidence apology.
func (s *Service) Handle(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()
	logger := slog.With("requestId", req.RequestID, "role", req.Role)

	var fallbackKind string
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("oracle pipeline panic", "panic", rec)
			resp = &Response{Answer: apology, Confidence: unexpectedConfidence}
			fallbackKind = "panic"
		}
		s.record(ctx, req, resp, fallbackKind, time.Since(start))
	}()

	resp, fallbackKind, err := s.run(ctx, req, logger)
	if err != nil {
		logger.Error("oracle pipeline failed", "error", err)
		fallbackKind = "error"
		if errors.Is(err, errStepPanic) {
			fallbackKind = "panic"
		}
		return &Response{Answer: apology, Confidence: unexpectedConfidence}
	}
	return resp
}

func (s *Service) run(ctx context.Context, req Request, logger *slog.Logger) (*Response, string, error) {
	isGuest := req.Role == member.RoleGuest

	var tc roleview.TeamContext
	var updates []update.Update
	if req.TeamID != nil && flag(req.Context.NeedsTeamContext) {
		var err error
		tc, updates, err = s.loadTeam(ctx, *req.TeamID, req.Role)
		if err != nil {
			return nil, "", err
		}
	}

	// Guests never carry a profile past this point.
	var profile *member.Member
	if !isGuest && flag(req.Context.NeedsPersonalization) {
		profile = s.loadProfile(ctx, req, logger)
	}

	var current stage.Stage
	if tc.Team != nil {
		current = tc.Team.Stage
	}
	analysis := s.deps.Classifier.Classify(updates, current, req.Query)

	var (
		matched   []member.Member
		resources []resource.Resource
		result    *command.Result
	)
	g, gctx := errgroup.WithContext(ctx)

	if s.deps.Matcher != nil && flag(req.Context.NeedsMentions) {
		goSafe(g, "match people", logger, func() error {
			found, err := s.deps.Matcher.Match(gctx, req.Query, profile, req.Role)
			if err != nil {
				logger.Warn("person matching failed", "error", err)
				return nil
			}
			matched = found
			return nil
		})
	}

	if flag(req.Context.NeedsResources) {
		goSafe(g, "rank resources", logger, func() error {
			resources = s.deps.Ranker.Rank(req.Query, profile, analysis.Stage, req.Role)
			return nil
		})
	}

	if !isGuest && s.deps.Parser != nil && s.deps.Executor != nil {
		actor := actorID(req, profile)
		goSafe(g, "run command", logger, func() error {
			result = s.act(gctx, req, actor, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", fmt.Errorf("gathering context: %w", err)
	}

	assembly := roleview.Assemble(req.Role, roleview.Input{
		Team:      tc,
		Updates:   updates,
		Profile:   profile,
		People:    matched,
		Resources: resources,
		Stage:     &analysis,
		Command:   result,
	})

	answer := s.deps.Responder.Generate(ctx, req.Role, PersonaPrompt(req.Role), assembly.Context, req.Query)

	confidence := Confidence(profile != nil, tc.Team != nil, len(resources) > 0, len(assembly.People) > 0)
	if answer.FallbackKind != "" {
		confidence = min(confidence, fallbackConfidence)
	}

	mentions := make([]string, 0, len(assembly.People))
	for _, p := range assembly.People {
		mentions = append(mentions, p.Name)
	}

	sources := len(resources) + len(assembly.People)
	if tc.Team != nil {
		sources++
	}
	if profile != nil {
		sources++
	}

	resp := &Response{
		Answer:          answer.Text,
		Sources:         sources,
		Confidence:      confidence,
		DetectedStage:   string(analysis.Stage),
		StageConfidence: analysis.Confidence,
		Resources:       resources,
		Mentions:        mentions,
		NextActions:     s.deps.Taxonomy.NextActions(analysis.Stage),
	}
	if result != nil && result.Executed {
		resp.Action = result
	}
	if profile != nil {
		resp.Personalization = &Personalization{
			ExperienceLevel:  profile.ExperienceLevel,
			SkillsConsidered: append([]string{}, profile.Skills...),
			HelpTopics:       append([]string{}, profile.HelpNeeded...),
			TeamStage:        string(current),
		}
	}

	return resp, string(answer.FallbackKind), nil
}

// act parses the query for an action and applies it. Validation failures are
// reported back as a failed result so the answer can explain them.
func (s *Service) act(ctx context.Context, req Request, actor *uuid.UUID, logger *slog.Logger) *command.Result {
	d := s.deps.Parser.Parse(ctx, req.Query)
	if !d.Actionable() {
		return nil
	}

	result, err := s.deps.Executor.Execute(ctx, d, command.Scope{
		Role:   req.Role,
		TeamID: req.TeamID,
		UserID: actor,
	})
	if err != nil {
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			logger.Info("command rejected", "action", d.Action, "field", verr.Field)
			return &command.Result{Executed: true, Action: d.Action, Message: "❌ " + verr.Message}
		}
		logger.Error("command failed", "action", d.Action, "error", err)
		return &command.Result{Executed: true, Action: d.Action, Message: "❌ Something went wrong while doing that."}
	}

	logger.Info("command executed", "action", d.Action, "failed", result.Failed())
	return result
}

// actorID is the member a command acts as: the explicit user id, else the id
// of the caller's profile.
func actorID(req Request, profile *member.Member) *uuid.UUID {
	if req.UserID != nil {
		return req.UserID
	}
	for _, p := range []*member.Member{profile, req.Profile} {
		if p != nil && p.ID != uuid.Nil {
			id := p.ID
			return &id
		}
	}
	return nil
}

func (s *Service) loadTeam(ctx context.Context, teamID uuid.UUID, role string) (roleview.TeamContext, []update.Update, error) {
	var tc roleview.TeamContext

	t, err := s.deps.Teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			return tc, nil, nil
		}
		return tc, nil, fmt.Errorf("loading team: %w", err)
	}
	tc.Team = t

	updates, err := s.deps.Updates.ListRecentByTeam(ctx, teamID, recentUpdateLimit)
	if err != nil {
		return tc, nil, fmt.Errorf("loading updates: %w", err)
	}
	tc.UpdateCount, err = s.deps.Updates.CountByTeam(ctx, teamID)
	if err != nil {
		return tc, nil, fmt.Errorf("counting updates: %w", err)
	}

	if role == member.RoleGuest {
		return tc, updates, nil
	}

	status, err := s.deps.Teams.GetStatus(ctx, teamID)
	if err != nil && !errors.Is(err, team.ErrTeamNotFound) {
		return tc, nil, fmt.Errorf("loading team status: %w", err)
	}
	tc.Status = status

	if role == member.RoleMentor || role == member.RoleLead {
		tc.Roster, err = s.deps.Members.ListByTeam(ctx, teamID)
		if err != nil {
			return tc, nil, fmt.Errorf("loading roster: %w", err)
		}
	}

	return tc, updates, nil
}

func (s *Service) loadProfile(ctx context.Context, req Request, logger *slog.Logger) *member.Member {
	if req.Profile != nil {
		return req.Profile
	}
	if req.UserID == nil || s.deps.Members == nil {
		return nil
	}
	p, err := s.deps.Members.GetByID(ctx, *req.UserID)
	if err != nil {
		if !errors.Is(err, member.ErrMemberNotFound) {
			logger.Warn("loading profile failed", "error", err)
		}
		return nil
	}
	return p
}

func (s *Service) record(ctx context.Context, req Request, resp *Response, fallbackKind string, d time.Duration) {
	if s.deps.Log == nil || resp == nil {
		return
	}

	entry := &oraclelog.Entry{
		RequestID:     req.RequestID,
		UserID:        req.UserID,
		TeamID:        req.TeamID,
		Role:          req.Role,
		Query:         req.Query,
		Answer:        resp.Answer,
		DetectedStage: resp.DetectedStage,
		Confidence:    resp.Confidence,
		Sources:       resp.Sources,
		FallbackKind:  fallbackKind,
		Duration:      d,
	}
	if resp.Action != nil {
		entry.Action = string(resp.Action.Action)
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.deps.Log.Append(logCtx, entry); err != nil {
		slog.Warn("writing oracle log failed", "requestId", req.RequestID, "error", err)
	}
}
