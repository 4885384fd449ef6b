// Package agent provides the agentic loop that connects the LLM to tools.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"nexuslm/customer"
	"nexuslm/tools"
)

const maxToolCalls = 20

const defaultMaxHistory = 40

const defaultName = "customer_service_agent"

// Options tune the agent. Zero values pick defaults.
type Options struct {
	// Name identifies the agent in logs.
	Name string
	// RatePerSecond and Burst throttle model calls across all sessions.
	RatePerSecond float64
	Burst         int
	// MaxHistory bounds the messages kept per session.
	MaxHistory int
}

// Agent handles conversations with the LLM and executes tool calls.
type Agent struct {
	name       string
	provider   ChatProvider
	registry   *tools.Registry
	customers  customer.Repository
	limiter    *rate.Limiter
	maxHistory int
	logger     zerolog.Logger

	mu       sync.Mutex
	sessions map[string][]Message
}

// New creates an Agent over provider and the tools in registry.
func New(provider ChatProvider, registry *tools.Registry, customers customer.Repository, opts Options) *Agent {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	return &Agent{
		name:       name,
		provider:   provider,
		registry:   registry,
		customers:  customers,
		limiter:    rate.NewLimiter(limit, burst),
		maxHistory: maxHistory,
		logger:     log.With().Str("component", "agent").Str("agent", name).Logger(),
		sessions:   make(map[string][]Message),
	}
}

// Chat sends a message on behalf of customerID within sessionID and runs
// tool calls until the model answers. The context is used for cancellation
// and passed to tool executions.
func (a *Agent) Chat(ctx context.Context, sessionID, customerID, userMessage string) (string, error) {
	profile, err := a.customers.Get(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("loading customer profile: %w", err)
	}
	system, err := systemPrompt(profile)
	if err != nil {
		return "", err
	}

	messages := append(a.history(sessionID), Message{Role: "user", Content: userMessage})
	defs := a.registry.Definitions()

	for i := 0; i < maxToolCalls; i++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for model rate limit: %w", err)
		}
		resp, err := a.provider.Complete(ctx, system, messages, defs)
		if err != nil {
			return "", fmt.Errorf("calling model: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			content := cleanResponse(resp.Content)
			messages = append(messages, Message{Role: "assistant", Content: content})
			a.save(sessionID, messages)
			return content, nil
		}

		messages = append(messages, *resp)
		for _, tc := range resp.ToolCalls {
			result, err := a.executeTool(ctx, tc, profile.CustomerID)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			messages = append(messages, Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", fmt.Errorf("exceeded maximum tool calls (%d)", maxToolCalls)
}

// Reset forgets a session's history.
func (a *Agent) Reset(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

func (a *Agent) history(sessionID string) []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.sessions[sessionID]...)
}

// save stores the newest messages, starting at a user turn so that tool
// results are never separated from the call that produced them.
func (a *Agent) save(sessionID string, messages []Message) {
	if len(messages) > a.maxHistory {
		messages = messages[len(messages)-a.maxHistory:]
	}
	for len(messages) > 0 && messages[0].Role != "user" {
		messages = messages[1:]
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionID] = append([]Message(nil), messages...)
}

func (a *Agent) executeTool(ctx context.Context, tc ToolCall, customerID string) (string, error) {
	tool, ok := a.registry.Get(tc.Name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", tc.Name)
	}

	args := map[string]any{}
	if strings.TrimSpace(tc.Arguments) != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return "", fmt.Errorf("parsing tool arguments: %w", err)
		}
	}
	// The session's customer is the default subject of every tool.
	if _, set := args["customer_id"]; !set && acceptsCustomerID(tool) {
		args["customer_id"] = customerID
	}

	a.logger.Info().Str("tool", tc.Name).Str("customer_id", customerID).Msg("executing tool")
	return a.registry.Execute(ctx, tc.Name, args)
}

func acceptsCustomerID(tool tools.Tool) bool {
	props, _ := tool.Parameters()["properties"].(map[string]any)
	_, ok := props["customer_id"]
	return ok
}

// cleanResponse removes any tool call syntax that the model incorrectly included in its text response
func cleanResponse(content string) string {
	if idx := strings.Index(content, "<function="); idx > 0 {
		before := strings.TrimSpace(content[:idx])
		if before != "" {
			return before
		}
	}
	if strings.Contains(content, "<function=") {
		return "I tried to use a tool but encountered an issue. Please try rephrasing your request."
	}
	return content
}
