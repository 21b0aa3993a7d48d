package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL,
	tool_calls   TEXT,
	tool_call_id TEXT,
	created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
`

// SQLiteStore keeps chat sessions in a single SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the REPL and agent share the handle
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// CreateSession starts an empty session
func (s *SQLiteStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)", id, now, now,
	); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// GetSession returns nil when the session does not exist
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		"SELECT id, created_at, updated_at FROM sessions WHERE id = ?", id))
}

// GetLatestSession returns the most recently active session, or nil
func (s *SQLiteStore) GetLatestSession(ctx context.Context) (*Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		"SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT 1"))
}

func (s *SQLiteStore) scanSession(row *sql.Row) (*Session, error) {
	var session Session
	err := row.Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return &session, nil
}

// UpdateSessionTime marks the session as active now
func (s *SQLiteStore) UpdateSessionTime(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), id,
	); err != nil {
		return fmt.Errorf("failed to update session time: %w", err)
	}
	return nil
}

// SaveMessage appends msg to the session and fills its ID, SessionID and
// CreatedAt. The session becomes the latest one.
func (s *SQLiteStore) SaveMessage(ctx context.Context, sessionID string, msg *Message) error {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, tool_calls, tool_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, msg.Role, msg.Content, nullString(msg.ToolCalls), nullString(msg.ToolCallID), now,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", now, sessionID); err != nil {
		return fmt.Errorf("failed to update session time: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		msg.ID = id
	}
	msg.SessionID = sessionID
	msg.CreatedAt = now
	return nil
}

// GetMessages returns at most limit of the newest messages, oldest first
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, tool_calls, tool_call_id, created_at
		 FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			msg                   Message
			toolCalls, toolCallID sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &toolCalls, &toolCallID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.ToolCalls = toolCalls.String
		msg.ToolCallID = toolCallID.String
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ClearSession deletes the session's messages; the session itself remains
func (s *SQLiteStore) ClearSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session messages: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
