package conversation

import "context"

// AppendParams carries one message append. Content, ToolCalls and ToolCallID
// are optional depending on the role.
type AppendParams struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Log is the persistence contract for the conversation message log.
// Implementations live in internal/store.
type Log interface {
	// CreateConversation starts an empty conversation owned by ownerID.
	CreateConversation(ctx context.Context, ownerID string) (*Conversation, error)

	// GetConversation returns the conversation or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ListConversations pages a user's conversations, most recently
	// updated first. page is 1-based.
	ListConversations(ctx context.Context, ownerID string, page, size int) ([]*Conversation, int, error)

	// AppendMessage adds one message to the end of a conversation's log.
	AppendMessage(ctx context.Context, conversationID string, p AppendParams) (*Message, error)

	// ListMessages returns messages ordered by creation time ascending. A
	// positive limit keeps only the most recent limit messages; limit <= 0
	// returns everything.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	// SetTitle updates the conversation title.
	SetTitle(ctx context.Context, conversationID, title string) error

	// DeleteConversation removes a conversation and its messages. Reports
	// whether a row existed.
	DeleteConversation(ctx context.Context, id string) (bool, error)
}
