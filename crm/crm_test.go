package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type capture struct {
	calls  atomic.Int32
	method string
	path   string
	auth   string
	body   struct {
		Properties map[string]string `json:"properties"`
	}
}

func newHubSpotServer(t *testing.T, c *capture, status int, reply string) *HubSpot {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls.Add(1)
		c.method = r.Method
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&c.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewHubSpot(srv.URL+"/", "hs-token", time.Second).WithHTTPClient(srv.Client())
}

func TestUpdateWithoutConfirmationMakesNoCall(t *testing.T) {
	t.Parallel()

	var c capture
	u := NewUpdater(newHubSpotServer(t, &c, http.StatusOK, `{}`))

	tests := []struct {
		name string
		req  UpdateRequest
	}{
		{"complete", UpdateRequest{CustomerID: "123", Details: map[string]any{"appointment_date": "2024-07-25"}}},
		{"empty id", UpdateRequest{Details: map[string]any{"appointment_date": "2024-07-25"}}},
		{"empty details", UpdateRequest{CustomerID: "123"}},
		{"nothing", UpdateRequest{}},
	}
	for _, tt := range tests {
		got := u.Update(context.Background(), tt.req, false)
		if got.Status != StatusCancelled {
			t.Errorf("%s: Status = %s, want cancelled", tt.name, got.Status)
		}
	}
	if n := c.calls.Load(); n != 0 {
		t.Fatalf("outbound calls = %d, want 0", n)
	}
}

func TestUpdateConfirmed(t *testing.T) {
	t.Parallel()

	var c capture
	u := NewUpdater(newHubSpotServer(t, &c, http.StatusOK, `{"id":"123"}`))

	got := u.Update(context.Background(), UpdateRequest{
		CustomerID: "123",
		Details: map[string]any{
			"appointment_date": "2024-07-25",
			"appointment_time": "9-12",
			"seats":            float64(3),
			"items":            []any{"n2-standard-2", "pd-ssd"},
		},
	}, true)

	if got.Status != StatusSuccess {
		t.Fatalf("Update() = %+v, want success", got)
	}
	if n := c.calls.Load(); n != 1 {
		t.Fatalf("outbound calls = %d, want 1", n)
	}
	if c.method != http.MethodPatch || c.path != "/crm/v3/objects/contacts/123" {
		t.Fatalf("request = %s %s", c.method, c.path)
	}
	if c.auth != "Bearer hs-token" {
		t.Fatalf("Authorization = %q", c.auth)
	}
	want := map[string]string{
		"appointment_date": "2024-07-25",
		"appointment_time": "9-12",
		"seats":            "3",
		"items":            "n2-standard-2;pd-ssd",
	}
	for k, v := range want {
		if c.body.Properties[k] != v {
			t.Fatalf("property %s = %q, want %q", k, c.body.Properties[k], v)
		}
	}
}

func TestUpdateSurfacesAPIError(t *testing.T) {
	t.Parallel()

	var c capture
	u := NewUpdater(newHubSpotServer(t, &c, http.StatusNotFound, `{"status":"error","message":"Object not found"}`))

	got := u.Update(context.Background(), UpdateRequest{CustomerID: "404", Details: map[string]any{"a": "b"}}, true)
	if got.Status != StatusError {
		t.Fatalf("Status = %s, want error", got.Status)
	}
	if !strings.Contains(got.Message, "Object not found") {
		t.Fatalf("Message = %q", got.Message)
	}
	if n := c.calls.Load(); n != 1 {
		t.Fatalf("outbound calls = %d, want exactly 1 (no retries)", n)
	}
}

func TestUpdateValidation(t *testing.T) {
	t.Parallel()

	var c capture
	u := NewUpdater(newHubSpotServer(t, &c, http.StatusOK, `{}`))

	for _, req := range []UpdateRequest{
		{CustomerID: "", Details: map[string]any{"a": "b"}},
		{CustomerID: "123"},
		{CustomerID: "123", Details: map[string]any{" ": "b"}},
	} {
		if got := u.Update(context.Background(), req, true); got.Status != StatusError {
			t.Fatalf("Update(%+v) = %+v, want error", req, got)
		}
	}
	if n := c.calls.Load(); n != 0 {
		t.Fatalf("outbound calls = %d, want 0", n)
	}
}

func TestHubSpotRequiresToken(t *testing.T) {
	t.Parallel()

	err := NewHubSpot("http://127.0.0.1:1", "", time.Second).UpdateContact(context.Background(), "1", map[string]string{"a": "b"})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("UpdateContact() error = %v", err)
	}
}
