package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store persists activity events. Implementations must tolerate concurrent
// appends.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is the engine-facing sink. Emit stamps the timestamp, hands the
// event to the store, and in async mode never blocks: when the buffer is
// full the event is dropped and counted, because losing an activity line is
// acceptable and stalling a status transition is not.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox   chan Event
	wg      sync.WaitGroup
	closed  chan struct{}
	dropped int64
	mu      sync.Mutex
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to a background worker with the
// given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. In sync mode store failures are logged and
// swallowed; in async mode the call never blocks.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "activity append failed",
				"action", event.Action,
				"process_id", event.ProcessID,
				"error", err,
			)
		}
		return
	}

	select {
	case p.inbox <- event:
	default:
		p.mu.Lock()
		p.dropped++
		dropped := p.dropped
		p.mu.Unlock()
		p.logger.Warn("activity buffer full, event dropped",
			"action", event.Action,
			"dropped_total", dropped,
		)
	}
}

// Dropped returns how many events were discarded due to a full buffer.
func (p *Publisher) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close drains the buffer and stops the worker. Safe to call once.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	close(p.closed)
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			p.append(event)
		case <-p.closed:
			// Drain remaining events before exiting.
			for {
				select {
				case event := <-p.inbox:
					p.append(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(event Event) {
	if err := p.store.Append(context.Background(), event); err != nil {
		p.logger.Error("activity append failed",
			"action", event.Action,
			"process_id", event.ProcessID,
			"error", err,
		)
	}
}
