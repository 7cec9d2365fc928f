package events

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/logging"
)

// ErrClosed is returned by Iterator.Next once the iterator is closed.
var ErrClosed = errors.New("iterator closed")

// DefaultBuffer is the per-subscriber queue length used when none is set.
const DefaultBuffer = 64

// Observer receives bus counters.
type Observer interface {
	EventPublished(topic string)
	EventDropped(topic string)
	SubscribersChanged(topic string, delta int)
}

type nopObserver struct{}

func (nopObserver) EventPublished(string)          {}
func (nopObserver) EventDropped(string)            {}
func (nopObserver) SubscribersChanged(string, int) {}

// Bus fans events out to per-subscriber buffers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[*Iterator]struct{}
	buffer int

	logger   logging.Logger
	observer Observer
}

type Option func(*Bus)

// WithObserver installs an Observer for publish and drop counters.
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observer = o }
}

func NewBus(buffer int, l logging.Logger, opts ...Option) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	b := &Bus{
		subs:     make(map[Topic]map[*Iterator]struct{}),
		buffer:   buffer,
		logger:   l.With("module", "event_bus"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish enqueues ev for every current subscriber of its topic and returns
// without waiting for delivery. A subscriber whose buffer is full misses
// the event.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	topic := ev.Topic()
	b.observer.EventPublished(string(topic))

	b.mu.RLock()
	defer b.mu.RUnlock()

	for it := range b.subs[topic] {
		select {
		case it.ch <- ev:
		default:
			b.observer.EventDropped(string(topic))
			b.logger.Warn(ctx, "subscriber buffer full, event dropped", "topic", topic)
		}
	}
}

// Subscribe registers a new iterator on topic. The caller must Close it.
func (b *Bus) Subscribe(topic Topic) *Iterator {
	it := &Iterator{
		bus:   b,
		topic: topic,
		ch:    make(chan Event, b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Iterator]struct{})
		b.subs[topic] = set
	}
	set[it] = struct{}{}
	b.mu.Unlock()

	b.observer.SubscribersChanged(string(topic), 1)
	return it
}

// Subscribers returns the number of open iterators on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) unsubscribe(it *Iterator) {
	b.mu.Lock()
	delete(b.subs[it.topic], it)
	if len(b.subs[it.topic]) == 0 {
		delete(b.subs, it.topic)
	}
	b.mu.Unlock()

	b.observer.SubscribersChanged(string(it.topic), -1)
}

// Iterator is a pull-based view of one subscription.
type Iterator struct {
	bus   *Bus
	topic Topic
	ch    chan Event
	done  chan struct{}
	once  sync.Once
}

// Next blocks until an event arrives, ctx is done or the iterator is
// closed. Buffered events are not returned after Close.
func (it *Iterator) Next(ctx context.Context) (Event, error) {
	select {
	case <-it.done:
		return nil, ErrClosed
	default:
	}

	select {
	case ev := <-it.ch:
		return ev, nil
	case <-it.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unsubscribes. It is safe to call more than once and concurrently
// with Next.
func (it *Iterator) Close() {
	it.once.Do(func() {
		it.bus.unsubscribe(it)
		close(it.done)
	})
}
