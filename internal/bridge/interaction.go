package bridge

import (
	"fmt"
	"strings"

	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/message"
)

// Interaction types.
const (
	InteractionPing    = 1
	InteractionCommand = 2
)

// Response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
)

// flagEphemeral makes a reply visible only to the invoking user.
const flagEphemeral = 64

// Option is one named slash-command argument.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// User identifies the account that invoked a command.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Interaction is an inbound webhook payload.
type Interaction struct {
	Type int `json:"type"`
	Data *struct {
		Name    string   `json:"name"`
		Options []Option `json:"options"`
	} `json:"data,omitempty"`
	Member *struct {
		User User `json:"user"`
	} `json:"member,omitempty"`
	User *User `json:"user,omitempty"`
}

// InvokerID returns the account id of whoever sent the interaction.
func (i *Interaction) InvokerID() string {
	if i.Member != nil && i.Member.User.ID != "" {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Reply is an outbound webhook response.
type Reply struct {
	Type int        `json:"type"`
	Data *ReplyData `json:"data,omitempty"`
}

// ReplyData carries the message shown to the user.
type ReplyData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// Pong answers a ping.
func Pong() Reply {
	return Reply{Type: ResponsePong}
}

// Message builds a private channel-message reply.
func Message(content string) Reply {
	return Reply{Type: ResponseChannelMessage, Data: &ReplyData{Content: content, Flags: flagEphemeral}}
}

// ToDescriptor maps a slash command onto the same action vocabulary the
// intent parser produces.
func ToDescriptor(name string, options []Option) (*intent.Descriptor, error) {
	opts := make(map[string]string, len(options))
	for _, o := range options {
		if o.Value == nil {
			continue
		}
		opts[strings.ToLower(o.Name)] = strings.TrimSpace(fmt.Sprint(o.Value))
	}

	switch strings.TrimPrefix(strings.ToLower(name), "/") {
	case "broadcast":
		d := &intent.Descriptor{
			Action:        intent.ActionBroadcast,
			Content:       opts["content"],
			BroadcastType: strings.ToLower(opts["audience"]),
		}
		if d.BroadcastType == message.BroadcastRole {
			d.TargetType = "role"
			d.TargetValue = strings.ToLower(opts["role"])
		}
		return d, nil
	case "update":
		return &intent.Descriptor{Action: intent.ActionCreateUpdate, Content: opts["content"]}, nil
	case "status":
		return &intent.Descriptor{Action: intent.ActionUpdateStatus, Status: opts["status"]}, nil
	case "assign":
		return &intent.Descriptor{Action: intent.ActionAssignUser, UserName: opts["user"], TeamName: opts["team"]}, nil
	case "message":
		return &intent.Descriptor{Action: intent.ActionSendMessage, UserName: opts["user"], Content: opts["content"]}, nil
	}
	return nil, fmt.Errorf("unknown command %q", name)
}
