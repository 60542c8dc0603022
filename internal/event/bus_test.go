package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got []string
	bus.Subscribe("netscan.scan.started", func(_ context.Context, e plugin.Event) {
		got = append(got, e.Topic)
	})
	bus.Subscribe("netscan.scan.completed", func(_ context.Context, e plugin.Event) {
		got = append(got, e.Topic)
	})

	err := bus.Publish(context.Background(), plugin.Event{
		Topic:     "netscan.scan.started",
		Source:    "netscan",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(got) != 1 || got[0] != "netscan.scan.started" {
		t.Errorf("delivered topics = %v, want [netscan.scan.started]", got)
	}
}

func TestSubscribeAllReceivesEveryTopic(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var count int
	bus.SubscribeAll(func(_ context.Context, _ plugin.Event) { count++ })

	topics := []string{"netscan.scan.started", "netscan.device.found", "vault.entry.created"}
	for _, topic := range topics {
		_ = bus.Publish(context.Background(), plugin.Event{Topic: topic})
	}

	if count != len(topics) {
		t.Errorf("handler invoked %d times, want %d", count, len(topics))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var count int
	unsub := bus.Subscribe("netscan.scan.progress", func(_ context.Context, _ plugin.Event) { count++ })

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "netscan.scan.progress"})
	unsub()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "netscan.scan.progress"})

	if count != 1 {
		t.Errorf("handler invoked %d times after unsubscribe, want 1", count)
	}
}

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { panic("handler bug") })

	var delivered bool
	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { delivered = true })

	if err := bus.Publish(context.Background(), plugin.Event{Topic: "boom"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !delivered {
		t.Error("second handler not invoked after first panicked")
	}
}

func TestPublishAsyncDeliversConcurrently(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(2)
	done := make(chan struct{})

	bus.Subscribe("async", func(_ context.Context, _ plugin.Event) { wg.Done() })
	bus.SubscribeAll(func(_ context.Context, _ plugin.Event) { wg.Done() })

	bus.PublishAsync(context.Background(), plugin.Event{Topic: "async"})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run within 2s")
	}
}
