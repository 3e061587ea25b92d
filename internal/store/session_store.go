package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/shopmate/internal/chat"
	"github.com/freshcart/shopmate/internal/domain"
)

// SessionStore persists chat transcripts so a conversation can be resumed
// after the relay restarts or the UI remounts.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a session store using the given database.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create records a new session and returns its identifier. userID may be
// empty for anonymous visitors.
func (s *SessionStore) Create(userID string) string {
	id := uuid.NewString()
	now := time.Now().Format(time.DateTime)
	_, err := s.db.sql.Exec(
		`INSERT INTO chat_sessions (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, userID, now, now,
	)
	if err != nil {
		s.db.log.Error().Err(err).Msg("failed to create chat session")
	}
	return id
}

// AppendTurn adds one transcript turn to a session.
func (s *SessionStore) AppendTurn(sessionID string, turn domain.Turn) {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO chat_turns (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		sessionID, string(turn.Role), turn.Content, ts.Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to append chat turn")
		return
	}

	_, _ = s.db.sql.Exec(
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		time.Now().Format(time.DateTime), sessionID,
	)
}

// History returns a session's stored turns in insertion order, shaped for
// feeding straight into a session Resume.
func (s *SessionStore) History(sessionID string) []chat.HistoryEntry {
	rows, err := s.db.sql.Query(
		`SELECT role, content FROM chat_turns WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var entries []chat.HistoryEntry
	for rows.Next() {
		var e chat.HistoryEntry
		if err := rows.Scan(&e.Role, &e.Content); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// List returns all session IDs, most recently active first.
func (s *SessionStore) List() []string {
	rows, err := s.db.sql.Query(`SELECT id FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Delete removes a session and its turns.
func (s *SessionStore) Delete(sessionID string) {
	if _, err := s.db.sql.Exec(`DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		s.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to delete chat session")
	}
}
