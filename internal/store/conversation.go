package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weihung/schedagent/internal/conversation"
)

// ConversationStore implements conversation.Log on SQLite.
type ConversationStore struct {
	db *DB
}

// NewConversationStore binds a conversation store to an open database.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// CreateConversation starts an empty conversation owned by ownerID.
func (st *ConversationStore) CreateConversation(ctx context.Context, ownerID string) (*conversation.Conversation, error) {
	c := &conversation.Conversation{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := st.db.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, NULL, ?, NULL)`,
		c.ID, c.UserID, encodeTime(c.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns the conversation or conversation.ErrNotFound.
func (st *ConversationStore) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	row := st.db.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, conversation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return c, nil
}

// ListConversations pages a user's conversations, most recently updated first.
func (st *ConversationStore) ListConversations(ctx context.Context, ownerID string, page, size int) ([]*conversation.Conversation, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var total int
	if err := st.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user_id = ?`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	rows, err := st.db.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations WHERE user_id = ?
		ORDER BY COALESCE(updated_at, created_at) DESC
		LIMIT ? OFFSET ?`,
		ownerID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	items := []*conversation.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations: %w", err)
	}
	return items, total, nil
}

// AppendMessage adds one message to the end of a conversation's log and
// touches the conversation's updated_at.
func (st *ConversationStore) AppendMessage(ctx context.Context, conversationID string, p conversation.AppendParams) (*conversation.Message, error) {
	m := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           p.Role,
		Content:        p.Content,
		ToolCalls:      p.ToolCalls,
		ToolCallID:     p.ToolCallID,
		CreatedAt:      time.Now().UTC(),
	}

	var toolCallsJSON sql.NullString
	if len(p.ToolCalls) > 0 {
		raw, err := json.Marshal(p.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("marshal tool calls: %w", err)
		}
		toolCallsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := st.db.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, tool_calls, tool_call_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Role, nullString(m.Content),
		toolCallsJSON, nullString(m.ToolCallID), encodeTime(m.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if _, err := st.db.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		encodeTime(m.CreatedAt), conversationID); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	return m, nil
}

// ListMessages returns messages in append order. A positive limit keeps only
// the most recent limit messages; limit <= 0 returns everything.
func (st *ConversationStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*conversation.Message, error) {
	// rowid preserves append order even when timestamps collide.
	query := `
		SELECT id, conversation_id, role, content, tool_calls, tool_call_id, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC`
	args := []any{conversationID}
	if limit > 0 {
		query = `
		SELECT id, conversation_id, role, content, tool_calls, tool_call_id, created_at
		FROM (
			SELECT id, conversation_id, role, content, tool_calls, tool_call_id, created_at, rowid AS rid
			FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, rid ASC`
		args = append(args, limit)
	}

	rows, err := st.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	items := []*conversation.Message{}
	for rows.Next() {
		var m conversation.Message
		var content, toolCalls, toolCallID sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &content,
			&toolCalls, &toolCallID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Content = content.String
		m.ToolCallID = toolCallID.String
		if toolCalls.Valid {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		if m.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		items = append(items, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

// SetTitle updates the conversation title.
func (st *ConversationStore) SetTitle(ctx context.Context, conversationID, title string) error {
	_, err := st.db.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		conversation.TitleFrom(title), encodeTime(time.Now().UTC()), conversationID)
	if err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation and, via cascade, its messages.
func (st *ConversationStore) DeleteConversation(ctx context.Context, id string) (bool, error) {
	res, err := st.db.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanConversation(row rowScanner) (*conversation.Conversation, error) {
	var c conversation.Conversation
	var title, updatedAt sql.NullString
	var createdAt string

	err := row.Scan(&c.ID, &c.UserID, &title, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Title = title.String
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if c.UpdatedAt, err = decodeTimePtr(updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	return &c, nil
}
