package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks task input and delegated requests.
	RoleUser Role = "user"
	// RoleAssistant marks raw model output.
	RoleAssistant Role = "assistant"
	// RoleTool marks tool results and parse errors fed back to the model.
	RoleTool Role = "tool"
	// RoleSystem marks rendered instructions. It never appears in a History.
	RoleSystem Role = "system"
)

// Valid reports whether r may be stored in a History.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// Message is one immutable entry of a conversation history.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
