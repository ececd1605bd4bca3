// Package llm talks to an OpenAI-compatible chat completions endpoint
// (Ollama's /v1 API by default). The model is an opaque dependency: this
// package only moves messages and tool schemas across the wire.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable covers every transport-level failure: connect, timeout,
// non-2xx. Callers treat it as fatal for the current turn and never retry.
var ErrUnavailable = errors.New("model backend unavailable")

// Message is one chat entry in the wire format the backend expects.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a structured tool request returned by the model.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its arguments.
type FunctionCall struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments,omitempty"`
}

// Arguments is a JSON object that some backends serialize as an embedded
// string and others as a plain object. Both forms decode into the map.
type Arguments map[string]any

// UnmarshalJSON accepts either {"a":1} or "{\"a\":1}".
func (a *Arguments) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*a = Arguments{}
			return nil
		}
		return json.Unmarshal([]byte(raw), (*map[string]any)(a))
	}
	return json.Unmarshal(data, (*map[string]any)(a))
}

// Tool is one entry of the tool schema sent verbatim to the model
// (OpenAI function-calling format).
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable operation to the model.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema object describing a tool's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes one tool argument.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Completion is what one model round trip produced.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Client calls the chat completions endpoint.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a client for the given backend. Empty arguments fall back
// to a local Ollama with a small tool-capable model.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen2.5:7b"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second, // tool-heavy completions can be slow
		},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete runs one chat completion. tools may be nil. Any transport failure
// is reported as ErrUnavailable; a well-formed reply never errors.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	msg := result.Choices[0].Message
	return &Completion{Text: msg.Content, ToolCalls: msg.ToolCalls}, nil
}
