package oraclelog

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a row in the append-only oracle_logs table. One entry is
// written per handled query.
type Entry struct {
	ID            uuid.UUID
	RequestID     string
	UserID        *uuid.UUID
	TeamID        *uuid.UUID
	Role          string
	Query         string
	Answer        string
	DetectedStage string
	Confidence    int
	Sources       int
	Action        string
	FallbackKind  string
	Duration      time.Duration
	CreatedAt     time.Time
}
