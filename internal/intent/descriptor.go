package intent

import (
	"fmt"
	"strings"

	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/message"
)

// Action is the kind of side effect a query asks for.
type Action string

const (
	ActionSendMessage  Action = "send_message"
	ActionCreateUpdate Action = "create_update"
	ActionUpdateStatus Action = "update_status"
	ActionAssignUser   Action = "assign_user"
	ActionBroadcast    Action = "broadcast"
	ActionNone         Action = "none"
)

// Actions lists every action the parser and executor understand.
var Actions = []Action{
	ActionSendMessage, ActionCreateUpdate, ActionUpdateStatus,
	ActionAssignUser, ActionBroadcast, ActionNone,
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Descriptor is a structured description of a requested action. Only the
// fields relevant to Action are set.
type Descriptor struct {
	Action        Action `json:"action"`
	TargetType    string `json:"target_type,omitempty"`
	TargetValue   string `json:"target_value,omitempty"`
	Content       string `json:"content,omitempty"`
	BroadcastType string `json:"broadcast_type,omitempty"`
	Status        string `json:"status,omitempty"`
	UserName      string `json:"user_name,omitempty"`
	TeamName      string `json:"team_name,omitempty"`
}

// Actionable reports whether d asks for a side effect. A nil descriptor is
// treated the same as ActionNone.
func (d *Descriptor) Actionable() bool {
	return d != nil && d.Action != ActionNone
}

// Validate checks that d is well-formed for its action: the action is known,
// enumerated fields hold known values and fields that belong to other
// actions are empty.
func (d *Descriptor) Validate() error {
	if !d.Action.Valid() {
		return fmt.Errorf("unknown action %q", d.Action)
	}

	allowed := map[Action][]string{
		ActionSendMessage:  {"target_type", "target_value", "content", "user_name"},
		ActionCreateUpdate: {"content"},
		ActionUpdateStatus: {"status", "content"},
		ActionAssignUser:   {"user_name", "team_name", "target_type", "target_value"},
		ActionBroadcast:    {"content", "broadcast_type", "target_type", "target_value"},
		ActionNone:         {},
	}
	set := d.setFields()
	for _, f := range set {
		if !contains(allowed[d.Action], f) {
			return fmt.Errorf("field %q is not valid for action %q", f, d.Action)
		}
	}

	if d.BroadcastType != "" && !message.ValidBroadcastType(d.BroadcastType) {
		return fmt.Errorf("unknown broadcast_type %q", d.BroadcastType)
	}
	if d.TargetType != "" && d.TargetType != "user" && d.TargetType != "team" && d.TargetType != "role" {
		return fmt.Errorf("unknown target_type %q", d.TargetType)
	}
	if d.Action == ActionBroadcast && d.BroadcastType == message.BroadcastRole &&
		d.TargetValue != "" && !member.ValidRole(strings.ToLower(d.TargetValue)) {
		return fmt.Errorf("unknown target role %q", d.TargetValue)
	}

	return nil
}

func (d *Descriptor) setFields() []string {
	var fields []string
	pairs := []struct {
		name  string
		value string
	}{
		{"target_type", d.TargetType},
		{"target_value", d.TargetValue},
		{"content", d.Content},
		{"broadcast_type", d.BroadcastType},
		{"status", d.Status},
		{"user_name", d.UserName},
		{"team_name", d.TeamName},
	}
	for _, p := range pairs {
		if p.value != "" {
			fields = append(fields, p.name)
		}
	}
	return fields
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
