package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	if hub == nil {
		t.Fatal("expected non-nil hub")
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub(nil)

	// Broadcast with no connections should not panic.
	hub.Broadcast(context.Background(), Message{
		Type:    "test",
		Payload: []byte(`{"key":"value"}`),
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub(nil)

	// A channel cannot be marshaled to JSON; should log error, not panic.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub(nil)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &conn{ws: nil, cancel: cancel}
	hub.remove(c)
}

func TestConnWants(t *testing.T) {
	tests := []struct {
		filter string
		event  string
		want   bool
	}{
		{"", "response.published", true},
		{"response.published", "response.published", true},
		{"response.published", "response.rejected", false},
		{"response.*", "response.rejected", true},
		{"response.*,dispatch.status", "dispatch.status", true},
		{"dispatch.status", "specialist.added", false},
	}
	for _, tt := range tests {
		c := &conn{events: parseEvents(tt.filter)}
		if got := c.wants(tt.event); got != tt.want {
			t.Errorf("filter %q event %q: got %v, want %v", tt.filter, tt.event, got, tt.want)
		}
	}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func waitConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", n, hub.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubDeliversSubscribedEvents(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	all := dial(t, srv, "")
	dispatchOnly := dial(t, srv, "?events=dispatch.status")
	waitConnections(t, hub, 2)

	ctx := context.Background()
	hub.BroadcastEvent(ctx, "response.published", map[string]string{"request_id": "req_1"})
	hub.BroadcastEvent(ctx, "dispatch.status", map[string]string{"state": "queued"})

	readType := func(c *websocket.Conn) string {
		t.Helper()
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, data, err := c.Read(rctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Timestamp.IsZero() {
			t.Error("message timestamp not set")
		}
		return msg.Type
	}

	if got := readType(all); got != "response.published" {
		t.Errorf("first event = %s, want response.published", got)
	}
	if got := readType(all); got != "dispatch.status" {
		t.Errorf("second event = %s, want dispatch.status", got)
	}
	if got := readType(dispatchOnly); got != "dispatch.status" {
		t.Errorf("filtered client got %s, want dispatch.status", got)
	}

	hub.Close()
	waitConnections(t, hub, 0)
}
