// Package events implements the in-process notification bus that carries
// file created/deleted events from the executor to audit subscribers.
package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
)

const DefaultQueueSize = 256

var (
	ErrBusStarted = errors.New("bus already started; subscriptions are fixed")
	ErrBusClosed  = errors.New("bus closed")
)

type subscription struct {
	name  string
	sub   webfiles.Subscriber
	kinds []webfiles.EventKind // empty matches every kind
}

func (s subscription) wants(kind webfiles.EventKind) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, kind)
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Published int64 // accepted onto the queue
	Dropped   int64 // rejected because the queue was full or the bus closed
	Delivered int64 // successful subscriber calls
	Failed    int64 // subscriber calls that returned an error or panicked
}

// Bus is a process-wide publish/subscribe channel. Subscribers register before
// Start; after that the registry is read-only. Publish never blocks: events
// are queued and a single dispatcher goroutine delivers each one to matching
// subscribers in registration order. Subscriber errors and panics are logged
// and swallowed.
type Bus struct {
	subs   []subscription
	queue  chan webfiles.Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex // guards started, closed and sends on queue
	started bool
	closed  bool

	published *xsync.Counter
	dropped   *xsync.Counter
	delivered *xsync.Counter
	failed    *xsync.Counter

	logger util.Logger
}

type Option func(*Bus)

// WithQueueSize bounds the number of undelivered events held by the bus.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan webfiles.Event, n)
		}
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		queue:     make(chan webfiles.Event, DefaultQueueSize),
		done:      make(chan struct{}),
		published: xsync.NewCounter(),
		dropped:   xsync.NewCounter(),
		delivered: xsync.NewCounter(),
		failed:    xsync.NewCounter(),
		logger:    util.GetLogger("EventBus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers sub for the given kinds, or for all kinds when none are
// given. It must be called before Start.
func (b *Bus) Subscribe(name string, sub webfiles.Subscriber, kinds ...webfiles.EventKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return ErrBusStarted
	}
	b.subs = append(b.subs, subscription{name: name, sub: sub, kinds: kinds})
	return nil
}

// Start launches the dispatcher. Events published earlier are delivered first.
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	if b.started {
		return ErrBusStarted
	}
	b.started = true
	b.ctx, b.cancel = context.WithCancel(context.Background())
	go b.run()
	b.logger.Debug().Int("subscribers", len(b.subs)).Msg("Event bus started")
	return nil
}

// Publish enqueues ev and returns immediately. If the queue is full or the bus
// is closed the event is dropped.
func (b *Bus) Publish(ev webfiles.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.dropped.Inc()
		return
	}
	select {
	case b.queue <- ev:
		b.published.Inc()
	default:
		b.dropped.Inc()
		b.logger.Warn().Str("kind", string(ev.Kind)).Str("filename", ev.Filename).
			Msg("Event queue full; dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// If ctx ends first, in-progress subscriber calls see their context cancelled
// and Close returns ctx.Err().
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	started := b.started
	b.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-b.done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		return ctx.Err()
	}
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Value(),
		Dropped:   b.dropped.Value(),
		Delivered: b.delivered.Value(),
		Failed:    b.failed.Value(),
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for ev := range b.queue {
		for _, s := range b.subs {
			if s.wants(ev.Kind) {
				b.deliver(s, ev)
			}
		}
	}
}

func (b *Bus) deliver(s subscription, ev webfiles.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.failed.Inc()
			b.logger.Error().Str("subscriber", s.name).Str("kind", string(ev.Kind)).
				Interface("panic", r).Msg("Subscriber panicked")
		}
	}()

	if err := s.sub.Notify(b.ctx, ev); err != nil {
		b.failed.Inc()
		b.logger.Warn().Err(err).Str("subscriber", s.name).Str("kind", string(ev.Kind)).
			Msg("Subscriber failed")
		return
	}
	b.delivered.Inc()
}

func (s Stats) String() string {
	return fmt.Sprintf("published=%d dropped=%d delivered=%d failed=%d",
		s.Published, s.Dropped, s.Delivered, s.Failed)
}

var _ webfiles.Publisher = (*Bus)(nil)
