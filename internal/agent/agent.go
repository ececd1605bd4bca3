// Package agent runs the conversational scheduling loop: it bridges an
// LLM backend with the deterministic schedule tools, persisting every step of
// the exchange into the conversation log.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weihung/schedagent/internal/conversation"
	"github.com/weihung/schedagent/internal/llm"
	"github.com/weihung/schedagent/internal/logging"
)

// Conversation titles derive from the first user message, bounded here.
const titleRuneLimit = 100

// ModelClient is the narrow contract to the language model backend.
type ModelClient interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error)
}

// Config tunes the orchestration loop.
type Config struct {
	// MaxIterations caps model round trips per turn so a model that never
	// stops requesting tools still terminates.
	MaxIterations int
	// HistoryWindow bounds how many persisted messages are replayed into
	// the model context.
	HistoryWindow int
	// Timezone labels the system prompt and anchors zone-less timestamps.
	Timezone string
}

func (c *Config) applyDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 50
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Taipei"
	}
}

// Action is one entry of the caller-facing audit trail: which tool ran, with
// what arguments, and whether it succeeded. Kept separate from the persisted
// message log.
type Action struct {
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args"`
	Success bool           `json:"success"`
}

// Result is what one completed turn returns to the caller.
type Result struct {
	ConversationID string   `json:"conversation_id"`
	Reply          string   `json:"message"`
	Actions        []Action `json:"actions_taken"`
}

// Agent owns the multi-turn tool-calling loop.
type Agent struct {
	model      ModelClient
	log        conversation.Log
	dispatcher *Dispatcher
	cfg        Config
	now        func() time.Time
	locks      *convLocks
}

// New wires an agent. now may be nil for wall-clock time.
func New(model ModelClient, log conversation.Log, dispatcher *Dispatcher, cfg Config) *Agent {
	cfg.applyDefaults()
	return &Agent{
		model:      model,
		log:        log,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		locks:      newConvLocks(),
	}
}

// Chat runs one full turn: resolve the conversation, replay history, loop the
// model against the tool dispatcher until it produces a plain answer (or the
// iteration cap trips), and persist every message along the way.
//
// conversationID may be empty to start a new conversation owned by userID.
func (a *Agent) Chat(ctx context.Context, userID, username, message, conversationID string) (*Result, error) {
	conv, err := a.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	// Turns on the same conversation are serialized; the message log must
	// replay in execution order.
	release := a.locks.acquire(conv.ID)
	defer release()

	messages, err := a.buildContext(ctx, conv, username, message)
	if err != nil {
		return nil, err
	}

	tools := ToolSchema()
	completion, err := a.model.Complete(ctx, messages, tools)
	if err != nil {
		// Nothing was persisted for this turn yet; the unanswered user
		// message is not committed.
		return nil, err
	}

	actions := []Action{}
	userPersisted := false
	persistUser := func() error {
		if userPersisted {
			return nil
		}
		if _, err := a.log.AppendMessage(ctx, conv.ID, conversation.AppendParams{
			Role:    conversation.RoleUser,
			Content: message,
		}); err != nil {
			return fmt.Errorf("persist user message: %w", err)
		}
		userPersisted = true
		return nil
	}

	for iteration := 0; len(completion.ToolCalls) > 0 && iteration < a.cfg.MaxIterations; iteration++ {
		if err := persistUser(); err != nil {
			return nil, err
		}

		toolCalls := toDomainToolCalls(completion.ToolCalls)
		if _, err := a.log.AppendMessage(ctx, conv.ID, conversation.AppendParams{
			Role:      conversation.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: toolCalls,
		}); err != nil {
			return nil, fmt.Errorf("persist assistant tool request: %w", err)
		}
		messages = append(messages, llm.Message{
			Role:      conversation.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		// Tool calls in a batch run one at a time: later calls may read
		// state an earlier call just changed.
		for _, tc := range completion.ToolCalls {
			name := tc.Function.Name
			args := map[string]any(tc.Function.Arguments)
			callID := tc.ID
			if callID == "" {
				callID = name
			}

			logging.Info("agent", "executing tool %s args=%s", name, logging.Truncate(compactJSON(args), 120))
			result := a.dispatcher.Execute(ctx, userID, name, args)

			success, _ := result["success"].(bool)
			actions = append(actions, Action{Tool: name, Args: args, Success: success})

			payload := compactJSON(result)
			if _, err := a.log.AppendMessage(ctx, conv.ID, conversation.AppendParams{
				Role:       conversation.RoleTool,
				Content:    payload,
				ToolCallID: callID,
			}); err != nil {
				return nil, fmt.Errorf("persist tool result: %w", err)
			}
			messages = append(messages, llm.Message{
				Role:       conversation.RoleTool,
				Content:    payload,
				ToolCallID: callID,
			})
		}

		completion, err = a.model.Complete(ctx, messages, tools)
		if err != nil {
			// Messages persisted in earlier iterations stay committed.
			return nil, err
		}
	}

	// Finalize with whatever text the last response carried. This is also
	// the fallback when the iteration cap trips mid-conversation.
	if err := persistUser(); err != nil {
		return nil, err
	}
	if _, err := a.log.AppendMessage(ctx, conv.ID, conversation.AppendParams{
		Role:    conversation.RoleAssistant,
		Content: completion.Text,
	}); err != nil {
		return nil, fmt.Errorf("persist assistant reply: %w", err)
	}

	if conv.Title == "" && message != "" {
		if err := a.log.SetTitle(ctx, conv.ID, truncateRunes(message, titleRuneLimit)); err != nil {
			logging.Warn("agent", "set conversation title: %v", err)
		}
	}

	return &Result{
		ConversationID: conv.ID,
		Reply:          completion.Text,
		Actions:        actions,
	}, nil
}

// resolveConversation loads and ownership-checks an existing conversation, or
// creates a fresh one when no id is supplied.
func (a *Agent) resolveConversation(ctx context.Context, userID, conversationID string) (*conversation.Conversation, error) {
	if conversationID == "" {
		conv, err := a.log.CreateConversation(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		return conv, nil
	}

	conv, err := a.log.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwner(userID) {
		return nil, conversation.ErrAccessDenied
	}
	return conv, nil
}

// buildContext reconstructs the model-facing message list: system prompt,
// bounded history window with tool linkage preserved, then the new user input.
func (a *Agent) buildContext(ctx context.Context, conv *conversation.Conversation, username, message string) ([]llm.Message, error) {
	history, err := a.log.ListMessages(ctx, conv.ID, a.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{
		Role:    "system",
		Content: systemPrompt(username, a.cfg.Timezone, a.now()),
	})
	for _, m := range history {
		msgs = append(msgs, llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  toWireToolCalls(m.ToolCalls),
			ToolCallID: m.ToolCallID,
		})
	}
	msgs = append(msgs, llm.Message{Role: conversation.RoleUser, Content: message})
	return msgs, nil
}

// ── conversation read/delete passthroughs with ownership checks ──

// Conversations pages the caller's conversations, most recent first.
func (a *Agent) Conversations(ctx context.Context, userID string, page, size int) ([]*conversation.Conversation, int, error) {
	return a.log.ListConversations(ctx, userID, page, size)
}

// Messages returns a conversation's user/assistant exchange for history
// display. Tool traffic is internal and filtered out.
func (a *Agent) Messages(ctx context.Context, userID, conversationID string) ([]*conversation.Message, error) {
	conv, err := a.log.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwner(userID) {
		return nil, conversation.ErrAccessDenied
	}

	all, err := a.log.ListMessages(ctx, conversationID, 0)
	if err != nil {
		return nil, err
	}
	visible := make([]*conversation.Message, 0, len(all))
	for _, m := range all {
		switch m.Role {
		case conversation.RoleUser:
			visible = append(visible, m)
		case conversation.RoleAssistant:
			// Assistant turns that only request tools carry no text.
			if m.Content != "" {
				visible = append(visible, m)
			}
		}
	}
	return visible, nil
}

// DeleteConversation removes a conversation after an ownership check.
func (a *Agent) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	conv, err := a.log.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsOwner(userID) {
		return conversation.ErrAccessDenied
	}
	_, err = a.log.DeleteConversation(ctx, conversationID)
	return err
}

// ── helpers ──

func toDomainToolCalls(calls []llm.ToolCall) []conversation.ToolCall {
	out := make([]conversation.ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, conversation.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func toWireToolCalls(calls []conversation.ToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, llm.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Name,
				Arguments: llm.Arguments(tc.Arguments),
			},
		})
	}
	return out
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"marshal result: %v"}`, err)
	}
	return string(raw)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
