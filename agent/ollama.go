package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/tools"
)

// Ollama talks to Ollama's /api/chat endpoint.
type Ollama struct {
	model  string
	url    string
	client *http.Client
	logger zerolog.Logger
}

type ollamaMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []ollamaMessage  `json:"messages"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type chatResponse struct {
	Message ollamaMessage `json:"message"`
}

// NewOllama creates a provider for model served at url
// (e.g. http://localhost:11434/api/chat).
func NewOllama(model, url string) *Ollama {
	return &Ollama{
		model: model,
		url:   url,
		client: &http.Client{
			Timeout: 120 * time.Second, // LLM responses can be slow
		},
		logger: log.With().Str("component", "ollama").Logger(),
	}
}

func (o *Ollama) Complete(ctx context.Context, system string, messages []Message, defs []tools.Definition) (*Message, error) {
	wire := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		wire = append(wire, ollamaMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		wire = append(wire, toOllamaMessage(m))
	}

	reqBody := chatRequest{
		Model:    o.model,
		Messages: wire,
		Tools:    tools.OllamaFormat(defs),
		Stream:   false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	o.logger.Debug().
		Int("content_len", len(chatResp.Message.Content)).
		Int("tool_calls", len(chatResp.Message.ToolCalls)).
		Msg("ollama response")

	return fromOllamaMessage(chatResp.Message), nil
}

func toOllamaMessage(m Message) ollamaMessage {
	out := ollamaMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
	for _, tc := range m.ToolCalls {
		args := json.RawMessage(tc.Arguments)
		if !json.Valid(args) {
			args = json.RawMessage("{}")
		}
		out.ToolCalls = append(out.ToolCalls, ollamaToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: ollamaFunctionCall{Name: tc.Name, Arguments: args},
		})
	}
	return out
}

// fromOllamaMessage converts a response, recovering XML-style tool calls
// that some models emit as plain text.
func fromOllamaMessage(m ollamaMessage) *Message {
	msg := &Message{Role: "assistant", Content: m.Content}
	for i, tc := range m.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args := strings.TrimSpace(string(tc.Function.Arguments))
		// Some models send arguments as a JSON-encoded string.
		var quoted string
		if json.Unmarshal(tc.Function.Arguments, &quoted) == nil {
			args = quoted
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: tc.Function.Name, Arguments: args})
	}
	if len(msg.ToolCalls) == 0 {
		if name, args, ok := parseXMLToolCall(m.Content); ok {
			b, _ := json.Marshal(args)
			msg.ToolCalls = []ToolCall{{ID: "parsed", Name: name, Arguments: string(b)}}
		}
	}
	return msg
}

// parseXMLToolCall parses "<function=name><parameter=key>value</parameter>"
// text. It returns the tool name, its arguments and whether parsing worked.
func parseXMLToolCall(content string) (string, map[string]any, bool) {
	start := strings.Index(content, "<function=")
	if start == -1 {
		return "", nil, false
	}

	nameStart := start + len("<function=")
	nameEnd := strings.Index(content[nameStart:], ">")
	if nameEnd == -1 {
		return "", nil, false
	}
	toolName := content[nameStart : nameStart+nameEnd]

	args := make(map[string]any)
	const paramPattern = "<parameter="
	remaining := content[nameStart+nameEnd:]
	for {
		paramStart := strings.Index(remaining, paramPattern)
		if paramStart == -1 {
			break
		}
		keyStart := paramStart + len(paramPattern)
		keyEnd := strings.Index(remaining[keyStart:], ">")
		if keyEnd == -1 {
			break
		}
		key := remaining[keyStart : keyStart+keyEnd]

		valueStart := keyStart + keyEnd + 1
		valueEnd := strings.Index(remaining[valueStart:], "</parameter>")
		if valueEnd == -1 {
			break
		}
		args[key] = strings.TrimSpace(remaining[valueStart : valueStart+valueEnd])
		remaining = remaining[valueStart+valueEnd+len("</parameter>"):]
	}

	if len(args) == 0 {
		return "", nil, false
	}
	return toolName, args, true
}
