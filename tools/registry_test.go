package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"nexuslm/audit"
)

type funcTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (string, error)
}

func (f funcTool) Name() string               { return f.name }
func (f funcTool) Description() string        { return "test tool " + f.name }
func (f funcTool) Parameters() map[string]any { return schema(nil, map[string]any{}) }
func (f funcTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return f.fn(ctx, args)
}

type memoryRecorder struct {
	mu   sync.Mutex
	seen []audit.Interaction
	err  error
}

func (m *memoryRecorder) Record(_ context.Context, in audit.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, in)
	return m.err
}

func (m *memoryRecorder) Close() error { return nil }

func (m *memoryRecorder) last(t *testing.T) audit.Interaction {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.seen) == 0 {
		t.Fatal("no interaction recorded")
	}
	return m.seen[len(m.seen)-1]
}

func counterValue(t *testing.T, tool, result string) float64 {
	t.Helper()
	c, err := toolCallsTotal.GetMetricWith(prometheus.Labels{"tool": tool, "result": result})
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRegistryExecuteSuccess(t *testing.T) {
	t.Parallel()

	rec := &memoryRecorder{}
	r := NewRegistry(time.Second, rec)
	r.Register(funcTool{name: "echo_success", fn: func(_ context.Context, args map[string]any) (string, error) {
		return fmt.Sprintf(`{"echo":%q}`, args["customer_id"]), nil
	}})

	got, err := r.Execute(context.Background(), "echo_success", map[string]any{"customer_id": "123"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != `{"echo":"123"}` {
		t.Errorf("Execute() = %s", got)
	}

	in := rec.last(t)
	if in.Tool != "echo_success" || in.CustomerID != "123" || in.Status != "success" {
		t.Errorf("recorded %+v", in)
	}
	if v := counterValue(t, "echo_success", "success"); v != 1 {
		t.Errorf("calls counter = %v, want 1", v)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	rec := &memoryRecorder{}
	_, err := NewRegistry(time.Second, rec).Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("Execute() error = %v, want ErrUnknownTool", err)
	}
	if len(rec.seen) != 0 {
		t.Errorf("recorded %d interactions for an unknown tool", len(rec.seen))
	}
}

func TestRegistryExecuteTimeout(t *testing.T) {
	t.Parallel()

	rec := &memoryRecorder{}
	r := NewRegistry(20*time.Millisecond, rec)
	r.Register(funcTool{name: "slow_tool", fn: func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", fmt.Errorf("calling backend: %w", ctx.Err())
	}})

	_, err := r.Execute(context.Background(), "slow_tool", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if err.Error() != "slow_tool timed out, please try again" {
		t.Errorf("error text = %q", err.Error())
	}
	if in := rec.last(t); in.Status != "timeout" {
		t.Errorf("recorded status = %q, want timeout", in.Status)
	}
}

func TestRegistryExecuteTimeoutInResultBody(t *testing.T) {
	t.Parallel()

	rec := &memoryRecorder{}
	r := NewRegistry(20*time.Millisecond, rec)
	r.Register(funcTool{name: "slow_body_tool", fn: func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return `{"status":"error","message":"Failed to send invitation: context deadline exceeded"}`, nil
	}})

	result, err := r.Execute(context.Background(), "slow_body_tool", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result, "deadline exceeded") {
		t.Errorf("result = %q, want the tool body", result)
	}
	if in := rec.last(t); in.Status != "timeout" {
		t.Errorf("recorded status = %q, want timeout", in.Status)
	}
	if got := counterValue(t, "slow_body_tool", "timeout"); got != 1 {
		t.Errorf("timeout counter = %v, want 1", got)
	}
	if got := counterValue(t, "slow_body_tool", "error"); got != 0 {
		t.Errorf("error counter = %v, want 0", got)
	}
}

func TestRegistryExecuteClassifiesOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result string
		err    error
		want   string
	}{
		{name: "invalid_args_tool", err: fmt.Errorf("%w: zone", ErrInvalidArgument), want: "invalid"},
		{name: "failing_tool", err: errors.New("backend down"), want: "error"},
		{name: "cancelled_tool", result: `{"status":"cancelled","message":"no"}`, want: "cancelled"},
		{name: "plain_tool", result: `{"items":[]}`, want: "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &memoryRecorder{err: errors.New("broker unavailable")}
			r := NewRegistry(time.Second, rec)
			r.Register(funcTool{name: tt.name, fn: func(context.Context, map[string]any) (string, error) {
				return tt.result, tt.err
			}})

			_, err := r.Execute(context.Background(), tt.name, nil)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.err)
			}
			if in := rec.last(t); in.Status != tt.want {
				t.Errorf("recorded status = %q, want %q", in.Status, tt.want)
			}
			if v := counterValue(t, tt.name, tt.want); v != 1 {
				t.Errorf("calls counter = %v, want 1", v)
			}
		})
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry(0, nil)
	for _, name := range []string{"b_tool", "c_tool", "a_tool"} {
		r.Register(funcTool{name: name})
	}

	defs := r.Definitions()
	if len(defs) != 3 || defs[0].Name != "a_tool" || defs[2].Name != "c_tool" {
		t.Errorf("Definitions() = %+v, want sorted by name", defs)
	}

	ollama := OllamaFormat(r.Definitions())
	fn, _ := ollama[0]["function"].(map[string]any)
	if ollama[0]["type"] != "function" || fn["name"] != "a_tool" {
		t.Errorf("OllamaFormat()[0] = %v", ollama[0])
	}
}
