package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/audit"
)

const auditTimeout = 5 * time.Second

// Registry holds all registered tools. It is read-only once startup is done.
type Registry struct {
	tools    map[string]Tool
	timeout  time.Duration
	recorder audit.Recorder
	logger   zerolog.Logger
}

// NewRegistry creates a registry whose calls are bounded by timeout
// (zero means unbounded) and reported to recorder (nil means audit.Nop).
func NewRegistry(timeout time.Duration, recorder audit.Recorder) *Registry {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Registry{
		tools:    make(map[string]Tool),
		timeout:  timeout,
		recorder: recorder,
		logger:   log.With().Str("component", "tools").Logger(),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Definition is the function-calling description of a tool shared by the
// Ollama and OpenAI chat APIs.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func (r *Registry) Definitions() []Definition {
	all := r.All()
	defs := make([]Definition, 0, len(all))
	for _, tool := range all {
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return defs
}

// OllamaFormat converts definitions to Ollama's expected format
func OllamaFormat(defs []Definition) []map[string]any {
	result := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        def.Name,
				"description": def.Description,
				"parameters":  def.Parameters,
			},
		})
	}
	return result
}

// Execute runs the named tool under the registry timeout, records metrics
// and publishes an audit record.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Execute(callCtx, args)
	elapsed := time.Since(start)

	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	if err != nil && timedOut {
		err = fmt.Errorf("%s %w", name, ErrTimeout)
	}
	status := outcome(result, err)
	// Tools that report failures in the body still ran out of time.
	if err == nil && timedOut && status == "error" {
		status = "timeout"
	}

	toolCallsTotal.WithLabelValues(name, status).Inc()
	toolCallDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	event := r.logger.Info()
	if err != nil {
		event = r.logger.Warn().Err(err)
	}
	event.Str("tool", name).Str("result", status).Dur("elapsed", elapsed).Msg("tool executed")

	r.record(ctx, name, args, status, err, start, elapsed)
	return result, err
}

func (r *Registry) record(ctx context.Context, name string, args map[string]any, status string, callErr error, at time.Time, elapsed time.Duration) {
	in := audit.Interaction{
		Tool:     name,
		Status:   status,
		Duration: elapsed,
		At:       at.UTC(),
	}
	if id, ok := args["customer_id"].(string); ok {
		in.CustomerID = id
	}
	if callErr != nil {
		in.Error = callErr.Error()
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.recorder.Record(auditCtx, in); err != nil {
		r.logger.Error().Err(err).Str("tool", name).Msg("recording interaction failed")
	}
}

// outcome classifies a call for metrics and audit. Tools that report
// failures in a {"status": ...} body are classified by that status.
func outcome(result string, err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	case err != nil:
		return "error"
	}
	var body struct {
		Status string `json:"status"`
	}
	if json.Unmarshal([]byte(result), &body) == nil && body.Status != "" {
		return body.Status
	}
	return "success"
}
