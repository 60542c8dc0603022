package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/cybershield/cybershield/internal/auth"
	"github.com/cybershield/cybershield/internal/event"
	"github.com/cybershield/cybershield/internal/netscan"
	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler, *auth.TokenService, *event.Bus) {
	t.Helper()

	tokens := auth.NewTokenService([]byte("test-secret"), 0, 0)
	bus := event.NewBus(zap.NewNop())
	h := NewHandler(tokens, bus, zap.NewNop())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, h, tokens, bus
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws" + query
}

func TestStreamRequiresToken(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/ws")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d without token, want 401", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/ws?token=garbage")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d with bad token, want 401", resp.StatusCode)
	}
}

func TestStreamReceivesScanEvents(t *testing.T) {
	srv, h, tokens, bus := newTestServer(t)

	token, err := tokens.IssueAccessToken(&auth.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "?token="+token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The handler registers the client just after the upgrade; wait for it
	// before publishing so the broadcast cannot precede registration.
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Synchronous publish guarantees the hub has broadcast before we read.
	err = bus.Publish(ctx, plugin.Event{
		Topic:     netscan.TopicScanStarted,
		Source:    "netscan",
		Timestamp: time.Now(),
		Payload:   netscan.ScanStartedEvent{ScanID: "scan-1", IPRange: "10.0.0.1-3", Hosts: 3},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
		TS      time.Time      `json:"ts"`
	}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read: %v", err)
	}

	if msg.Type != string(MessageScanStarted) {
		t.Errorf("type = %q, want %q", msg.Type, MessageScanStarted)
	}
	if msg.Payload["scan_id"] != "scan-1" {
		t.Errorf("payload = %v, want scan_id scan-1", msg.Payload)
	}
	if msg.TS.IsZero() {
		t.Error("ts is zero")
	}
}

func TestTopicMessageMapping(t *testing.T) {
	want := map[string]MessageType{
		netscan.TopicScanStarted:   MessageScanStarted,
		netscan.TopicScanProgress:  MessageScanProgress,
		netscan.TopicScanCompleted: MessageScanCompleted,
		netscan.TopicScanFailed:    MessageScanFailed,
		netscan.TopicDeviceFound:   MessageDeviceFound,
	}
	for topic, msgType := range want {
		if got := topicMessages[topic]; got != msgType {
			t.Errorf("topicMessages[%q] = %q, want %q", topic, got, msgType)
		}
	}
}
