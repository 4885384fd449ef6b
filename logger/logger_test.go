package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, Config{})
	l.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}

	l.Info().Str("component", "cart").Msg("visible")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["component"] != "cart" || entry["message"] != "visible" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, Config{Debug: true})
	l.Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("expected debug output")
	}
}
