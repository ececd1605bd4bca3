// Package conversation defines the persisted chat log consumed by the agent:
// conversations owned by a single user and their append-only messages.
package conversation

import (
	"errors"
	"time"
)

// Message roles. A tool message always carries a tool-call correlation id and
// never carries tool-call requests; a user message never carries either.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// maxTitleLen bounds the title derived from the first user message.
const maxTitleLen = 255

var (
	// ErrNotFound is returned when no conversation exists for the given id.
	ErrNotFound = errors.New("conversation not found")
	// ErrAccessDenied is returned when a non-owner touches a conversation.
	ErrAccessDenied = errors.New("no permission to access this conversation")
)

// Conversation is the aggregate owning a message log. Only the owner may read
// or mutate it.
type Conversation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsOwner reports whether userID owns the conversation.
func (c *Conversation) IsOwner(userID string) bool {
	return c.UserID == userID
}

// TitleFrom bounds a candidate title to the stored limit without splitting a
// multibyte character.
func TitleFrom(s string) string {
	runes := []rune(s)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen])
	}
	return s
}

// ToolCall is a structured tool request emitted by the model. The ID pairs
// the request with its later result message. Not persisted as its own entity;
// it rides on assistant messages as JSON.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry in a conversation's log. Messages are totally ordered
// by creation time within their conversation.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Role           string     `json:"role"`
	Content        string     `json:"content,omitempty"`
	ToolCalls      []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID     string     `json:"tool_call_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
