package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
)

type fakeChannel struct {
	mu        sync.Mutex
	exchange  string
	keys      []string
	messages  []amqp.Publishing
	err       error
	closeCall int
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.keys = append(f.keys, key)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closeCall++
	return nil
}

func TestAMQPRecorderRecord(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	rec := &AMQPRecorder{ch: ch, exchange: "nexuslm.interactions"}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := Interaction{Tool: "retrieve_cart_information", CustomerID: "123", Status: "success", Duration: time.Second, At: at}
	if err := rec.Record(context.Background(), in); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if ch.exchange != "nexuslm.interactions" {
		t.Errorf("exchange = %q", ch.exchange)
	}
	if len(ch.keys) != 1 || ch.keys[0] != "tool.retrieve_cart_information.success" {
		t.Errorf("keys = %v", ch.keys)
	}
	var got Interaction
	if err := json.Unmarshal(ch.messages[0].Body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got.CustomerID != "123" || !got.At.Equal(at) {
		t.Errorf("published %+v, want %+v", got, in)
	}
	if ch.messages[0].DeliveryMode != amqp.Persistent {
		t.Errorf("DeliveryMode = %d, want persistent", ch.messages[0].DeliveryMode)
	}

	if err := rec.Close(); err != nil || ch.closeCall != 1 {
		t.Errorf("Close() error = %v, calls = %d", err, ch.closeCall)
	}
}

func TestAMQPRecorderErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("channel closed")
	rec := &AMQPRecorder{ch: &fakeChannel{err: boom}, exchange: "x"}
	if err := rec.Record(context.Background(), Interaction{Tool: "t"}); !errors.Is(err, boom) {
		t.Errorf("Record() error = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := &fakeChannel{}
	rec = &AMQPRecorder{ch: ch, exchange: "x"}
	if err := rec.Record(ctx, Interaction{Tool: "t"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Record(cancelled) error = %v, want context.Canceled", err)
	}
	if len(ch.keys) != 0 {
		t.Errorf("published %d messages on a cancelled context", len(ch.keys))
	}
}

func TestRoutingKey(t *testing.T) {
	t.Parallel()

	if got := RoutingKey(Interaction{Tool: "send_meeting_invitation"}); got != "tool.send_meeting_invitation.unknown" {
		t.Errorf("RoutingKey() = %q", got)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var r Recorder = Nop{}
	if err := r.Record(context.Background(), Interaction{}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
