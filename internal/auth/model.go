package auth

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a row in the api_clients table: a service (chat UI,
// bridge worker) allowed to call the Oracle.
type Client struct {
	ID        uuid.UUID
	Name      string
	KeyPrefix string
	KeyHash   string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	ClientID   uuid.UUID
	ClientName string
}
