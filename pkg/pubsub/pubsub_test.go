package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for message")
	}
	var zero T
	return zero
}

func TestBasicPubSub(t *testing.T) {
	bus := New[string](0)
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), "nodes")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if n := bus.Publish("nodes", "run__en"); n != 1 {
		t.Errorf("delivered to %d subscribers, want 1", n)
	}
	if got := receive(t, sub); got != "run__en" {
		t.Errorf("got %q", got)
	}
	if sub.Topic() != "nodes" {
		t.Errorf("Topic() = %q", sub.Topic())
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := New[int](0)
	defer bus.Shutdown()

	subs := make([]*Subscription[int], 5)
	for i := range subs {
		sub, err := bus.Subscribe(context.Background(), "broadcast")
		if err != nil {
			t.Fatalf("Failed to subscribe %d: %v", i, err)
		}
		subs[i] = sub
	}

	bus.Publish("broadcast", 7)
	for i, sub := range subs {
		if got := receive(t, sub); got != 7 {
			t.Errorf("subscriber %d got %d", i, got)
		}
	}
}

func TestTopicIsolation(t *testing.T) {
	bus := New[string](0)
	defer bus.Shutdown()

	a, _ := bus.Subscribe(context.Background(), "a")
	b, _ := bus.Subscribe(context.Background(), "b")

	bus.Publish("a", "for-a")
	if got := receive(t, a); got != "for-a" {
		t.Errorf("a got %q", got)
	}
	select {
	case msg := <-b.C():
		t.Errorf("b received %q from topic a", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := New[string](0)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), "t")
	if bus.SubscriberCount("t") != 1 {
		t.Fatalf("SubscriberCount = %d", bus.SubscriberCount("t"))
	}
	sub.Unsubscribe()
	sub.Unsubscribe()

	if bus.SubscriberCount("t") != 0 {
		t.Errorf("SubscriberCount after unsubscribe = %d", bus.SubscriberCount("t"))
	}
	if _, ok := <-sub.C(); ok {
		t.Error("channel should be closed")
	}
	if n := bus.Publish("t", "x"); n != 0 {
		t.Errorf("delivered %d after unsubscribe", n)
	}
}

func TestContextCancellation(t *testing.T) {
	bus := New[string](0)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := bus.Subscribe(ctx, "t")
	cancel()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}

	deadline := time.Now().Add(time.Second)
	for bus.SubscriberCount("t") != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if bus.SubscriberCount("t") != 0 {
		t.Error("subscriber not removed after cancel")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := New[int](2)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), "t")
	for i := 0; i < 5; i++ {
		bus.Publish("t", i)
	}
	if bus.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", bus.Dropped())
	}
	if got := receive(t, sub); got != 0 {
		t.Errorf("first message = %d, want 0", got)
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := New[int](1000)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), "t")

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				bus.Publish("t", i)
			}
		}()
	}
	wg.Wait()

	if got := len(sub.C()); got != 500 {
		t.Errorf("buffered %d messages, want 500", got)
	}
}

func TestShutdown(t *testing.T) {
	bus := New[string](0)
	sub, _ := bus.Subscribe(context.Background(), "t")

	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-sub.C(); ok {
		t.Error("channel should be closed after shutdown")
	}
	if _, err := bus.Subscribe(context.Background(), "t"); !errors.Is(err, ErrShutdown) {
		t.Errorf("Subscribe after shutdown err = %v", err)
	}
	if n := bus.Publish("t", "late"); n != 0 {
		t.Errorf("publish after shutdown delivered %d", n)
	}
}
