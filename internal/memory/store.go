// Package memory persists chat sessions and their message history.
package memory

import (
	"context"
	"time"
)

// Store session and message storage
type Store interface {
	CreateSession(ctx context.Context) (string, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	GetLatestSession(ctx context.Context) (*Session, error)
	UpdateSessionTime(ctx context.Context, id string) error
	ClearSession(ctx context.Context, sessionID string) error

	SaveMessage(ctx context.Context, sessionID string, msg *Message) error
	// GetMessages returns up to limit of the most recent messages, oldest first.
	GetMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error)

	Close() error
}

// Session session structure
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message message structure
type Message struct {
	ID         int64
	SessionID  string
	Role       string // "user" | "assistant" | "tool"
	Content    string
	ToolCalls  string // JSON encoded tool calls of an assistant message
	ToolCallID string // set on tool results
	CreatedAt  time.Time
}
