package ws

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(userID string) *Client {
	return &Client{
		userID: userID,
		send:   make(chan Message, 256),
		logger: zap.NewNop(),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("user-1")

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	// Unregister closes the send channel.
	if _, ok := <-client.send; ok {
		t.Error("client.send channel is not closed")
	}
}

func TestUnregisterNotRegistered(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("user-1")

	// Must not panic or close the channel of an unknown client.
	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		if !ok {
			t.Error("channel closed for unregistered client")
		}
	default:
	}
}

func TestUnregisterTwice(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("user-1")

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client) // second call must be a no-op

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	clients := []*Client{
		newTestClient("user-1"),
		newTestClient("user-2"),
		newTestClient("user-3"),
	}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.Broadcast(Message{Type: MessageScanStarted, TS: time.Now()})

	for i, c := range clients {
		select {
		case got := <-c.send:
			if got.Type != MessageScanStarted {
				t.Errorf("client %d received type %q, want %q", i+1, got.Type, MessageScanStarted)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive the broadcast", i+1)
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Broadcast(Message{Type: MessageScanCompleted, TS: time.Now()})
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("user-1")
	hub.Register(client)

	for i := 0; i < cap(client.send); i++ {
		client.send <- Message{Type: MessageScanProgress}
	}

	// A full buffer drops the message instead of blocking the broadcaster.
	hub.Broadcast(Message{Type: MessageScanFailed, Payload: "dropped"})

	if len(client.send) != cap(client.send) {
		t.Errorf("buffer length = %d, want %d", len(client.send), cap(client.send))
	}
	got := <-client.send
	if got.Type == MessageScanFailed {
		t.Error("dropped message was unexpectedly delivered")
	}
}

func TestConcurrentRegisterUnregisterBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := newTestClient("user")
			hub.Register(client)
			go func() {
				for range client.send {
				}
			}()
			time.Sleep(10 * time.Millisecond)
			hub.Unregister(client)
		}()
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Message{Type: MessageScanProgress, TS: time.Now()})
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after all clients left, want 0", hub.ClientCount())
	}
}
