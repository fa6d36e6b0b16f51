package message

import "context"

// Repository provides insert operations on the messages table.
type Repository interface {
	Create(ctx context.Context, m *Message) error
}
