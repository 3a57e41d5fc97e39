package pubsub

import (
	"context"
	"errors"
	"sync"
)

// ErrShutdown is returned when subscribing to a bus that has shut down.
var ErrShutdown = errors.New("pubsub: shut down")

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 100

// Bus delivers typed messages to topic subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the message.
type Bus[T any] struct {
	subscribers map[string]map[*Subscription[T]]struct{}
	buffer      int
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	dropped     uint64
}

// Subscription receives the messages of one topic.
type Subscription[T any] struct {
	topic     string
	channel   chan T
	bus       *Bus[T]
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a bus whose subscriptions buffer up to buffer messages.
// A non-positive buffer means DefaultBuffer.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus[T]{
		subscribers: make(map[string]map[*Subscription[T]]struct{}),
		buffer:      buffer,
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a subscription to topic that ends when ctx is done,
// Unsubscribe is called or the bus shuts down.
func (b *Bus[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, b.buffer),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription[T]]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends message to every subscriber of topic. The subscriber set
// is snapshotted so sends happen outside the lock.
func (b *Bus[T]) Publish(topic string, message T) int {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return 0
	}
	b.shutdownMu.Unlock()

	b.mu.RLock()
	topicSubs := b.subscribers[topic]
	subs := make([]*Subscription[T], 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.send(message) {
			delivered++
		}
	}

	if missed := len(subs) - delivered; missed > 0 {
		b.mu.Lock()
		b.dropped += uint64(missed)
		b.mu.Unlock()
	}
	return delivered
}

// SubscriberCount returns the number of subscribers for a topic
func (b *Bus[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full or already closed.
func (b *Bus[T]) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Shutdown closes all subscriptions. Later publishes are ignored.
func (b *Bus[T]) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// C returns the subscription's message channel. It is closed when the
// subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.channel
}

// Topic returns the subscribed topic.
func (s *Subscription[T]) Topic() string {
	return s.topic
}

// Unsubscribe removes the subscription
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.bus.mu.Unlock()

	s.close()
}

// send delivers without blocking. A concurrent close turns into a
// missed delivery rather than a panic.
func (s *Subscription[T]) send(message T) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.channel <- message:
		return true
	default:
		return false
	}
}

func (s *Subscription[T]) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
