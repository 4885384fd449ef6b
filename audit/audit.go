// Package audit publishes a record of every tool invocation.
package audit

import (
	"context"
	"time"
)

// Interaction is one tool call as seen by the registry.
type Interaction struct {
	Tool       string        `json:"tool"`
	CustomerID string        `json:"customer_id,omitempty"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	At         time.Time     `json:"at"`
}

// Recorder receives interactions. Implementations must not block the caller
// for long and must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, in Interaction) error
	Close() error
}

// Nop drops every interaction.
type Nop struct{}

func (Nop) Record(context.Context, Interaction) error { return nil }
func (Nop) Close() error                              { return nil }
