// Package tools exposes the support agent's capabilities as named tools the
// model (or an HTTP caller) can invoke with JSON arguments.
package tools

import "context"

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the JSON schema for the tool's parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given arguments and returns a JSON
	// document. Errors wrapping ErrInvalidArgument mean the caller sent bad
	// arguments; any other error is a downstream failure.
	Execute(ctx context.Context, args map[string]any) (string, error)
}
