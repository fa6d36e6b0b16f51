package message

import (
	"time"

	"github.com/google/uuid"
)

// Broadcast audiences.
const (
	BroadcastAll  = "all"
	BroadcastTeam = "team"
	BroadcastRole = "role"
)

// ValidBroadcastType reports whether t is a known broadcast audience.
func ValidBroadcastType(t string) bool {
	return t == BroadcastAll || t == BroadcastTeam || t == BroadcastRole
}

// Message represents a row in the messages table. Direct messages carry a
// ReceiverID; broadcasts set IsBroadcast and a BroadcastType instead.
type Message struct {
	ID            uuid.UUID
	SenderID      uuid.UUID
	ReceiverID    *uuid.UUID
	TeamID        *uuid.UUID
	IsBroadcast   bool
	BroadcastType *string
	TargetRole    *string
	Content       string
	Read          bool
	CreatedAt     time.Time
}
