package domain

import "time"

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is injected only at request time and never stored in a
	// session transcript.
	RoleSystem Role = "system"
)

// Turn is a single message in a conversation transcript. Turns are
// append-only: once complete they are never mutated.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
