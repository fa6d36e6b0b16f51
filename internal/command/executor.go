package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/message"
	"github.com/cohortlabs/oracle/internal/team"
	"github.com/cohortlabs/oracle/internal/update"
)

// ValidationError is returned when a command is missing a required field or
// carries an oversized value. It is always raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result describes the outcome of an executed command. Executed is true
// whenever the command was attempted, including failures reported in
// Message.
type Result struct {
	Executed bool          `json:"executed"`
	Action   intent.Action `json:"action"`
	Message  string        `json:"message"`
	Data     any           `json:"data,omitempty"`
}

// Failed reports whether the command was attempted but did not succeed.
func (r *Result) Failed() bool {
	return r != nil && r.Executed && strings.HasPrefix(r.Message, failurePrefix)
}

const failurePrefix = "❌"

// Scope is who is asking and on behalf of which team.
type Scope struct {
	Role   string
	TeamID *uuid.UUID
	UserID *uuid.UUID
}

// MemberStore is the subset of member operations commands need.
type MemberStore interface {
	FindByName(ctx context.Context, name string) (*member.Member, error)
	AssignTeam(ctx context.Context, id uuid.UUID, teamID *uuid.UUID) error
}

// TeamStore is the subset of team operations commands need.
type TeamStore interface {
	GetByName(ctx context.Context, name string) (*team.Team, error)
	UpsertStatus(ctx context.Context, teamID uuid.UUID, status string) (*team.Status, error)
}

// Executor validates and applies parsed actions against the data store.
type Executor struct {
	members  MemberStore
	teams    TeamStore
	updates  update.Repository
	messages message.Repository
}

// NewExecutor creates an Executor.
func NewExecutor(members MemberStore, teams TeamStore, updates update.Repository, messages message.Repository) *Executor {
	return &Executor{
		members:  members,
		teams:    teams,
		updates:  updates,
		messages: messages,
	}
}

// Execute applies d within scope. Store failures, unknown targets and
// permission problems come back as a failed Result; malformed commands come
// back as a *ValidationError with nothing written.
func (e *Executor) Execute(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	if !d.Actionable() {
		return &Result{Executed: false, Action: intent.ActionNone}, nil
	}
	if !d.Action.Valid() {
		return nil, &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", d.Action)}
	}

	if scope.Role == member.RoleGuest || !member.ValidRole(scope.Role) {
		return failed(d.Action, "Guests can ask questions, but actions need a builder, mentor or lead account."), nil
	}

	switch d.Action {
	case intent.ActionBroadcast:
		return e.broadcast(ctx, d, scope)
	case intent.ActionAssignUser:
		return e.assignUser(ctx, d, scope)
	case intent.ActionCreateUpdate:
		return e.createUpdate(ctx, d, scope)
	case intent.ActionUpdateStatus:
		return e.updateStatus(ctx, d, scope)
	case intent.ActionSendMessage:
		return e.sendMessage(ctx, d, scope)
	}
	return &Result{Executed: false, Action: intent.ActionNone}, nil
}

func (e *Executor) broadcast(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	content := strings.TrimSpace(d.Content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "broadcast content is required"}
	}
	if err := checkLength("content", content); err != nil {
		return nil, err
	}

	btype := d.BroadcastType
	if btype == "" {
		btype = message.BroadcastAll
	}
	if !message.ValidBroadcastType(btype) {
		return nil, &ValidationError{Field: "broadcast_type", Message: fmt.Sprintf("unknown broadcast type %q", btype)}
	}

	var targetRole *string
	switch btype {
	case message.BroadcastTeam:
		if scope.TeamID == nil {
			return nil, &ValidationError{Field: "team_id", Message: "a team is required for team broadcasts"}
		}
	case message.BroadcastRole:
		role := strings.ToLower(strings.TrimSpace(d.TargetValue))
		if !member.ValidRole(role) {
			return nil, &ValidationError{Field: "target_value", Message: "a valid role is required for role broadcasts"}
		}
		targetRole = &role
	}

	if scope.UserID == nil {
		return nil, &ValidationError{Field: "user_id", Message: "a sender is required"}
	}

	switch {
	case scope.Role == member.RoleLead:
	case scope.Role == member.RoleMentor && btype == message.BroadcastTeam:
	default:
		return failed(d.Action, "Only leads can broadcast to everyone; mentors can broadcast to their team."), nil
	}

	msg := &message.Message{
		SenderID:      *scope.UserID,
		IsBroadcast:   true,
		BroadcastType: &btype,
		TargetRole:    targetRole,
		Content:       content,
	}
	if btype == message.BroadcastTeam {
		msg.TeamID = scope.TeamID
	}

	if err := e.messages.Create(ctx, msg); err != nil {
		slog.Error("broadcast failed", "error", err, "broadcastType", btype)
		return failed(d.Action, "Failed to send broadcast. Please try again."), nil
	}

	audience := "everyone"
	switch btype {
	case message.BroadcastTeam:
		audience = "your team"
	case message.BroadcastRole:
		audience = "all " + *targetRole + "s"
	}
	return &Result{
		Executed: true,
		Action:   d.Action,
		Message:  fmt.Sprintf("📢 Broadcast sent to %s.", audience),
		Data:     map[string]any{"messageId": msg.ID.String(), "broadcastType": btype},
	}, nil
}

func (e *Executor) assignUser(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	name := d.UserName
	if name == "" && d.TargetType == "user" {
		name = d.TargetValue
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "user_name", Message: "the user to assign is required"}
	}

	if scope.Role != member.RoleLead {
		return failed(d.Action, "Only leads can assign people to teams."), nil
	}

	m, err := e.members.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return failed(d.Action, fmt.Sprintf("User %q not found.", name)), nil
		}
		slog.Error("member lookup failed", "error", err)
		return failed(d.Action, "Failed to look up that user. Please try again."), nil
	}

	var (
		target   *uuid.UUID
		teamName string
	)
	if tn := strings.TrimSpace(d.TeamName); tn != "" {
		t, err := e.teams.GetByName(ctx, tn)
		if err != nil {
			if errors.Is(err, team.ErrTeamNotFound) {
				return failed(d.Action, fmt.Sprintf("Team %q not found.", tn)), nil
			}
			slog.Error("team lookup failed", "error", err)
			return failed(d.Action, "Failed to look up that team. Please try again."), nil
		}
		target = &t.ID
		teamName = t.Name
	}

	if err := e.members.AssignTeam(ctx, m.ID, target); err != nil {
		slog.Error("assigning member failed", "error", err, "memberId", m.ID)
		return failed(d.Action, "Failed to update the assignment. Please try again."), nil
	}

	msg := fmt.Sprintf("✅ %s removed from their team.", m.Name)
	if target != nil {
		msg = fmt.Sprintf("✅ %s assigned to %s.", m.Name, teamName)
	}
	return &Result{
		Executed: true,
		Action:   d.Action,
		Message:  msg,
		Data:     map[string]any{"memberId": m.ID.String(), "teamId": uuidString(target)},
	}, nil
}

func (e *Executor) createUpdate(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	if scope.TeamID == nil {
		return failed(d.Action, "You need to be on a team to post updates."), nil
	}

	content := strings.TrimSpace(d.Content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "update text is required"}
	}
	if err := checkLength("content", content); err != nil {
		return nil, err
	}

	u := &update.Update{
		TeamID:    *scope.TeamID,
		Content:   content,
		Type:      update.TypeDaily,
		CreatedBy: scope.UserID,
	}
	if err := e.updates.Create(ctx, u); err != nil {
		slog.Error("creating update failed", "error", err, "teamId", scope.TeamID)
		return failed(d.Action, "Failed to post your update. Please try again."), nil
	}

	return &Result{
		Executed: true,
		Action:   d.Action,
		Message:  "📝 Update posted to your team feed.",
		Data:     map[string]any{"updateId": u.ID.String()},
	}, nil
}

func (e *Executor) updateStatus(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	if scope.TeamID == nil {
		return failed(d.Action, "You need to be on a team to set a status."), nil
	}

	status := strings.TrimSpace(d.Status)
	if status == "" {
		status = strings.TrimSpace(d.Content)
	}
	if status == "" {
		return nil, &ValidationError{Field: "status", Message: "status text is required"}
	}
	if err := checkLength("status", status); err != nil {
		return nil, err
	}

	s, err := e.teams.UpsertStatus(ctx, *scope.TeamID, status)
	if err != nil {
		slog.Error("updating team status failed", "error", err, "teamId", scope.TeamID)
		return failed(d.Action, "Failed to update your team status. Please try again."), nil
	}

	return &Result{
		Executed: true,
		Action:   d.Action,
		Message:  fmt.Sprintf("✅ Team status updated: %s", s.Status),
		Data:     map[string]any{"status": s.Status, "updatedAt": s.UpdatedAt},
	}, nil
}

func (e *Executor) sendMessage(ctx context.Context, d *intent.Descriptor, scope Scope) (*Result, error) {
	name := d.UserName
	if name == "" && d.TargetType == "user" {
		name = d.TargetValue
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "user_name", Message: "a recipient is required"}
	}
	content := strings.TrimSpace(d.Content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "message content is required"}
	}
	if err := checkLength("content", content); err != nil {
		return nil, err
	}
	if scope.UserID == nil {
		return nil, &ValidationError{Field: "user_id", Message: "a sender is required"}
	}

	recipient, err := e.members.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return failed(d.Action, fmt.Sprintf("User %q not found.", name)), nil
		}
		slog.Error("member lookup failed", "error", err)
		return failed(d.Action, "Failed to look up that user. Please try again."), nil
	}

	msg := &message.Message{
		SenderID:   *scope.UserID,
		ReceiverID: &recipient.ID,
		Content:    content,
	}
	if err := e.messages.Create(ctx, msg); err != nil {
		slog.Error("sending message failed", "error", err)
		return failed(d.Action, "Failed to send your message. Please try again."), nil
	}

	return &Result{
		Executed: true,
		Action:   d.Action,
		Message:  fmt.Sprintf("✉️ Message sent to %s.", recipient.Name),
		Data:     map[string]any{"messageId": msg.ID.String()},
	}, nil
}

func failed(action intent.Action, text string) *Result {
	return &Result{Executed: true, Action: action, Message: failurePrefix + " " + text}
}

func checkLength(field, s string) error {
	if utf8.RuneCountInString(s) > update.MaxContentLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", update.MaxContentLength)}
	}
	return nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
