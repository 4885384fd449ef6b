package agent

import (
	"context"

	"nexuslm/tools"
)

// ToolCall represents a tool invocation requested by the LLM. Arguments is
// the raw JSON object text.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message represents a chat message in the conversation.
type Message struct {
	Role       string // "user", "assistant" or "tool"
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ChatProvider is a chat-completion backend. system is prepended to the
// conversation when non-empty.
type ChatProvider interface {
	Complete(ctx context.Context, system string, messages []Message, defs []tools.Definition) (*Message, error)
}
